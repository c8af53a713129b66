// Package visualize renders evaluation artifacts of model selection runs as
// PNG images.
package visualize

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/harukimoto/pipelearn/modelselection"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// PlotSearchScores renders the mean cross-validation score of every grid
// search candidate, in candidate order, with error bars of one standard
// deviation. The plot is written to filename; the image format follows the
// file extension (.png, .svg, .pdf).
func PlotSearchScores(results []modelselection.CVResult, title, filename string) error {
	if len(results) == 0 {
		return errors.NewValueError("PlotSearchScores", "no search results to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Candidate"
	p.Y.Label.Text = "Mean CV score"

	pts := make(plotter.XYs, len(results))
	yerrs := make(plotter.YErrors, len(results))
	for i, r := range results {
		pts[i].X = float64(i)
		pts[i].Y = r.MeanScore
		yerrs[i].Low = r.StdScore
		yerrs[i].High = r.StdScore
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "building score line")
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "building score points")
	}
	p.Add(scatter)

	bars, err := plotter.NewYErrorBars(struct {
		plotter.XYer
		plotter.YErrorer
	}{pts, yerrs})
	if err != nil {
		return errors.Wrap(err, "building error bars")
	}
	p.Add(bars)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "saving plot %q", filename)
	}
	return nil
}

// PlotParamScores renders the mean cross-validation score against the values
// of one swept hyperparameter. Results are grouped by the parameter's value;
// when several candidates share a value (because other parameters vary too),
// the best mean score among them is plotted. Parameter values must be numeric.
func PlotParamScores(results []modelselection.CVResult, param, title, filename string) error {
	if len(results) == 0 {
		return errors.NewValueError("PlotParamScores", "no search results to plot")
	}

	best := make(map[float64]float64)
	for _, r := range results {
		raw, ok := r.Params[param]
		if !ok {
			return errors.NewValueError("PlotParamScores",
				fmt.Sprintf("parameter %q not present in search results", param))
		}
		v, err := toFloat(raw)
		if err != nil {
			return errors.Wrapf(err, "parameter %q", param)
		}
		if score, seen := best[v]; !seen || r.MeanScore > score {
			best[v] = r.MeanScore
		}
	}

	values := make([]float64, 0, len(best))
	for v := range best {
		values = append(values, v)
	}
	sort.Float64s(values)

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = v
		pts[i].Y = best[v]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = param
	p.Y.Label.Text = "Mean CV score"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "building score line")
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "building score points")
	}
	p.Add(scatter)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "saving plot %q", filename)
	}
	return nil
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, errors.NewValueError("toFloat", fmt.Sprintf("non-numeric value %v", v))
	}
}

// PlotFoldScores renders the per-fold scores of a single candidate as a
// scatter over fold index.
func PlotFoldScores(result modelselection.CVResult, title, filename string) error {
	if len(result.FoldScores) == 0 {
		return errors.NewValueError("PlotFoldScores", "no fold scores to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Fold"
	p.Y.Label.Text = "Score"

	pts := make(plotter.XYs, len(result.FoldScores))
	for i, s := range result.FoldScores {
		pts[i].X = float64(i)
		pts[i].Y = s
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "building fold points")
	}
	scatter.Color = color.RGBA{R: 255, A: 255}
	p.Add(scatter)

	mean := plotter.XYs{
		{X: 0, Y: result.MeanScore},
		{X: float64(len(result.FoldScores) - 1), Y: result.MeanScore},
	}
	line, err := plotter.NewLine(mean)
	if err != nil {
		return errors.Wrap(err, "building mean line")
	}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "saving plot %q", filename)
	}
	return nil
}
