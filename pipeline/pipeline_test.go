package pipeline

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/preprocessing"
	"github.com/harukimoto/pipelearn/tree"
)

func trainingData() (*mat.Dense, *mat.Dense) {
	nan := math.NaN()
	X := mat.NewDense(8, 2, []float64{
		1, 10,
		2, 11,
		nan, 9,
		1.5, 10.5,
		8, 30,
		9, nan,
		8.5, 31,
		9.5, 29,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestPipeline_FitPredict(t *testing.T) {
	X, y := trainingData()

	p, err := NewPipeline(
		NamedStep("imputer", preprocessing.NewSimpleImputer(preprocessing.StrategyMean)),
		NamedStep("scaler", preprocessing.NewStandardScalerDefault()),
		NamedStep("model", tree.NewDecisionTreeClassifier(tree.WithRandomState(1))),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := p.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("row %d: predicted %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}

	acc, err := p.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if acc != 1 {
		t.Errorf("training accuracy = %v, want 1", acc)
	}
}

func TestPipeline_MatchesManualSteps(t *testing.T) {
	X, y := trainingData()

	imputer := preprocessing.NewSimpleImputer(preprocessing.StrategyMean)
	scaler := preprocessing.NewStandardScalerDefault()
	manual, err := imputer.FitTransform(X)
	if err != nil {
		t.Fatalf("manual impute failed: %v", err)
	}
	manual, err = scaler.FitTransform(manual)
	if err != nil {
		t.Fatalf("manual scale failed: %v", err)
	}

	p, err := NewPipeline(
		NamedStep("imputer", preprocessing.NewSimpleImputer(preprocessing.StrategyMean)),
		NamedStep("scaler", preprocessing.NewStandardScalerDefault()),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	piped, err := p.FitTransform(X, y)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if !mat.EqualApprox(manual, piped, 1e-12) {
		t.Error("pipeline output differs from manually chained transforms")
	}
}

func TestPipeline_Validation(t *testing.T) {
	transformer := preprocessing.NewStandardScalerDefault()
	model := tree.NewDecisionTreeClassifier()

	tests := []struct {
		name  string
		steps []Step
	}{
		{"no steps", nil},
		{"empty name", []Step{NamedStep("", transformer)}},
		{"reserved separator", []Step{NamedStep("a__b", transformer)}},
		{"duplicate names", []Step{NamedStep("s", transformer), NamedStep("s", model)}},
		{"nil component", []Step{NamedStep("s", nil)}},
		{"predictor before end", []Step{NamedStep("m", model), NamedStep("s", transformer)}},
		{"unfittable component", []Step{NamedStep("s", 42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPipeline(tt.steps...); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPipeline_ParamRouting(t *testing.T) {
	p, err := NewPipeline(
		NamedStep("scaler", preprocessing.NewStandardScalerDefault()),
		NamedStep("model", tree.NewDecisionTreeClassifier(tree.WithMaxDepth(3))),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	params := p.GetParams()
	if got := params["model__max_depth"]; got != 3 {
		t.Errorf("model__max_depth = %v, want 3", got)
	}

	if err := p.SetParams(map[string]interface{}{"model__max_depth": 5}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if got := p.GetParams()["model__max_depth"]; got != 5 {
		t.Errorf("after SetParams, model__max_depth = %v, want 5", got)
	}

	if err := p.SetParams(map[string]interface{}{"nosuch__x": 1}); err == nil {
		t.Error("expected error for unknown step")
	}
	if err := p.SetParams(map[string]interface{}{"flat": 1}); err == nil {
		t.Error("expected error for unrouted parameter")
	}
}

func TestPipeline_SetParamsResetsFit(t *testing.T) {
	X, y := trainingData()

	p, err := NewPipeline(
		NamedStep("model", tree.NewDecisionTreeClassifier()),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if err := p.SetParams(map[string]interface{}{"model__max_depth": 2}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if _, err := p.Predict(X); err == nil {
		t.Error("expected not-fitted error after SetParams")
	}
}

func TestPipeline_CloneIsIndependent(t *testing.T) {
	X, y := trainingData()

	p, err := NewPipeline(
		NamedStep("imputer", preprocessing.NewSimpleImputer(preprocessing.StrategyMean)),
		NamedStep("model", tree.NewDecisionTreeClassifier(tree.WithRandomState(1))),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	clone, ok := p.Clone().(*Pipeline)
	if !ok {
		t.Fatal("Clone did not return a *Pipeline")
	}
	if _, err := clone.Predict(X); err == nil {
		t.Error("clone should start unfitted")
	}

	// Fitting the clone must not disturb the original.
	if err := clone.Fit(X, y); err != nil {
		t.Fatalf("clone Fit failed: %v", err)
	}
	if _, err := p.Predict(X); err != nil {
		t.Errorf("original pipeline broken after clone fit: %v", err)
	}
}

func TestPipeline_TransformRequiresAllTransformers(t *testing.T) {
	X, y := trainingData()

	p, err := NewPipeline(
		NamedStep("scaler", preprocessing.NewStandardScalerDefault()),
		NamedStep("model", tree.NewDecisionTreeClassifier()),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := p.Transform(X); err == nil {
		t.Error("expected error: final step is not a transformer")
	}
}

func TestPipeline_NotFitted(t *testing.T) {
	p, err := NewPipeline(
		NamedStep("model", tree.NewDecisionTreeClassifier()),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.Predict(mat.NewDense(1, 2, []float64{1, 2})); err == nil {
		t.Error("expected not-fitted error")
	}
}
