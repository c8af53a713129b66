package modelselection

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/core/parallel"
	"github.com/harukimoto/pipelearn/pkg/errors"
	mllog "github.com/harukimoto/pipelearn/pkg/log"
)

// ParamGrid maps parameter names to candidate values. Names use the same
// routing syntax as SetParams, so "scaler__with_mean" reaches the scaler
// step inside a pipeline.
type ParamGrid map[string][]interface{}

// Candidates expands the grid into the cartesian product of its values.
// Parameter names are iterated in sorted order, so the candidate sequence is
// deterministic.
func (g ParamGrid) Candidates() []map[string]interface{} {
	if len(g) == 0 {
		return []map[string]interface{}{{}}
	}

	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []map[string]interface{}{{}}
	for _, name := range names {
		values := g[name]
		next := make([]map[string]interface{}, 0, len(out)*len(values))
		for _, base := range out {
			for _, v := range values {
				cand := make(map[string]interface{}, len(base)+1)
				for k, bv := range base {
					cand[k] = bv
				}
				cand[name] = v
				next = append(next, cand)
			}
		}
		out = next
	}
	return out
}

// CVResult holds the cross-validation outcome of one parameter candidate.
type CVResult struct {
	Params     map[string]interface{}
	FoldScores []float64
	MeanScore  float64
	StdScore   float64
}

// Scorer evaluates a fitted estimator on held-out data. The default scorer
// delegates to the estimator's own Score method.
type Scorer func(est model.TunableEstimator, X, y mat.Matrix) (float64, error)

// GridSearchCV exhaustively evaluates every candidate of a parameter grid
// with k-fold cross-validation and refits the best candidate on the full
// data.
//
// The estimator is cloned for every (candidate, fold) pair, so the searched
// estimator is never mutated. With a seeded KFold and seeded estimators the
// whole search is deterministic.
type GridSearchCV struct {
	Estimator model.TunableEstimator
	Grid      ParamGrid
	CV        *KFold

	// Scoring overrides the estimator's own Score method when set.
	Scoring Scorer

	// NJobs caps the number of concurrent candidate evaluations.
	// 0 means one worker per CPU.
	NJobs int

	// Results are populated by Fit, one entry per candidate in grid order.
	Results []CVResult

	// BestIndex, BestParams and BestScore describe the winning candidate.
	BestIndex  int
	BestParams map[string]interface{}
	BestScore  float64

	// BestEstimator is the winning candidate refitted on the full data.
	BestEstimator model.TunableEstimator

	fitted bool
}

// NewGridSearchCV returns a grid search over est with seeded 5-fold
// cross-validation.
func NewGridSearchCV(est model.TunableEstimator, grid ParamGrid, seed int64) *GridSearchCV {
	return &GridSearchCV{
		Estimator: est,
		Grid:      grid,
		CV:        NewKFold(5, seed),
	}
}

// Fit runs the search: every candidate is scored on every fold, the best
// mean score wins, and the winner is refitted on all of X and y.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	if gs.Estimator == nil {
		return errors.NewValidationError("Estimator", "grid search needs an estimator", nil)
	}
	if gs.CV == nil {
		return errors.NewValidationError("CV", "grid search needs a cross-validation splitter", nil)
	}

	n, _ := X.Dims()
	trainFolds, testFolds, err := gs.CV.Split(n)
	if err != nil {
		return err
	}

	candidates := gs.Grid.Candidates()
	results := make([]CVResult, len(candidates))
	errs := make([]error, len(candidates))

	workers := gs.NJobs
	parallel.ParallelizeWithWorkers(len(candidates), workers, func(start, end int) {
		for c := start; c < end; c++ {
			results[c], errs[c] = gs.evaluateCandidate(candidates[c], X, y, trainFolds, testFolds)
			if errs[c] == nil {
				slog.Debug("candidate evaluated",
					slog.String(mllog.ModelNameKey, "GridSearchCV"),
					slog.Int(mllog.CandidateKey, c),
					slog.Float64(mllog.ScoreKey, results[c].MeanScore),
				)
			}
		}
	})

	for c, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "grid search candidate %d", c)
		}
	}

	best := 0
	for c := 1; c < len(results); c++ {
		if results[c].MeanScore > results[best].MeanScore {
			best = c
		}
	}

	winner := gs.Estimator.Clone()
	if len(candidates[best]) > 0 {
		if err := winner.SetParams(candidates[best]); err != nil {
			return errors.Wrap(err, "refitting best candidate")
		}
	}
	if err := winner.Fit(X, y); err != nil {
		return errors.Wrap(err, "refitting best candidate")
	}

	gs.Results = results
	gs.BestIndex = best
	gs.BestParams = candidates[best]
	gs.BestScore = results[best].MeanScore
	gs.BestEstimator = winner
	gs.fitted = true
	return nil
}

func (gs *GridSearchCV) evaluateCandidate(params map[string]interface{}, X, y mat.Matrix, trainFolds, testFolds [][]int) (CVResult, error) {
	res := CVResult{
		Params:     params,
		FoldScores: make([]float64, len(trainFolds)),
	}

	for f := range trainFolds {
		est := gs.Estimator.Clone()
		if len(params) > 0 {
			if err := est.SetParams(params); err != nil {
				return res, err
			}
		}

		XTrain := selectRows(X, trainFolds[f])
		yTrain := selectRows(y, trainFolds[f])
		XTest := selectRows(X, testFolds[f])
		yTest := selectRows(y, testFolds[f])

		if err := est.Fit(XTrain, yTrain); err != nil {
			return res, errors.Wrapf(err, "fold %d", f)
		}

		var (
			score float64
			err   error
		)
		if gs.Scoring != nil {
			score, err = gs.Scoring(est, XTest, yTest)
		} else {
			scorer, ok := est.(model.Scorer)
			if !ok {
				return res, errors.NewValueError("GridSearchCV", "estimator cannot score; set Scoring")
			}
			score, err = scorer.Score(XTest, yTest)
		}
		if err != nil {
			return res, errors.Wrapf(err, "fold %d", f)
		}
		res.FoldScores[f] = score
	}

	res.MeanScore = stat.Mean(res.FoldScores, nil)
	res.StdScore = foldStd(res.FoldScores, res.MeanScore)
	return res, nil
}

// Predict delegates to the refitted best estimator.
func (gs *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !gs.fitted {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return gs.BestEstimator.Predict(X)
}

// Score delegates to the refitted best estimator.
func (gs *GridSearchCV) Score(X, y mat.Matrix) (float64, error) {
	if !gs.fitted {
		return 0, errors.NewNotFittedError("GridSearchCV", "Score")
	}
	scorer, ok := gs.BestEstimator.(model.Scorer)
	if !ok {
		return 0, errors.NewValueError("GridSearchCV.Score", "best estimator cannot score")
	}
	return scorer.Score(X, y)
}

// foldStd is the population standard deviation of per-fold scores.
func foldStd(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
