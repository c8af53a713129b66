package pipeline

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/preprocessing"
)

func TestFeatureUnion_ExpandsColumns(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 4,
		9, 16,
		25, 36,
	})

	union, err := NewFeatureUnion(
		NamedBranch("identity", preprocessing.Identity()),
		NamedBranch("sqrt", preprocessing.Sqrt()),
		NamedBranch("square", preprocessing.Square()),
	)
	if err != nil {
		t.Fatalf("NewFeatureUnion failed: %v", err)
	}

	out, err := union.FitTransform(X, nil)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := out.Dims()
	if r != 3 || c != 6 {
		t.Fatalf("expected 3x6 output, got %dx%d", r, c)
	}

	// Column blocks are [X, sqrt(X), X^2] in branch order.
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			v := X.At(i, j)
			if got := out.At(i, j); got != v {
				t.Errorf("identity (%d,%d): got %v, want %v", i, j, got, v)
			}
			if got := out.At(i, 2+j); got != math.Sqrt(v) {
				t.Errorf("sqrt (%d,%d): got %v, want %v", i, j, got, math.Sqrt(v))
			}
			if got := out.At(i, 4+j); got != v*v {
				t.Errorf("square (%d,%d): got %v, want %v", i, j, got, v*v)
			}
		}
	}
}

func TestFeatureUnion_PipelineBranches(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(4, 3, []float64{
		1, 10, 0,
		2, nan, 1,
		3, 30, 0,
		nan, 40, 1,
	})

	numeric, err := NewPipeline(
		NamedStep("select", preprocessing.NewColumnSelector(0, 1)),
		NamedStep("impute", preprocessing.NewSimpleImputer(preprocessing.StrategyMean)),
		NamedStep("scale", preprocessing.NewStandardScalerDefault()),
	)
	if err != nil {
		t.Fatalf("numeric branch: %v", err)
	}
	categorical, err := NewPipeline(
		NamedStep("select", preprocessing.NewColumnSelector(2)),
		NamedStep("encode", preprocessing.NewOneHotEncoder()),
	)
	if err != nil {
		t.Fatalf("categorical branch: %v", err)
	}

	union, err := NewFeatureUnion(
		NamedBranch("numeric", numeric),
		NamedBranch("categorical", categorical),
	)
	if err != nil {
		t.Fatalf("NewFeatureUnion failed: %v", err)
	}

	out, err := union.FitTransform(X, nil)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := out.Dims()
	if r != 4 || c != 4 {
		t.Fatalf("expected 4x4 output (2 scaled + 2 one-hot), got %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(out.At(i, j)) {
				t.Errorf("(%d,%d) is NaN after imputation", i, j)
			}
		}
	}
	// One-hot block rows sum to 1.
	for i := 0; i < r; i++ {
		if out.At(i, 2)+out.At(i, 3) != 1 {
			t.Errorf("row %d: one-hot block sums to %v", i, out.At(i, 2)+out.At(i, 3))
		}
	}
}

func TestFeatureUnion_Validation(t *testing.T) {
	tests := []struct {
		name     string
		branches []Branch
	}{
		{"no branches", nil},
		{"empty name", []Branch{NamedBranch("", preprocessing.Identity())}},
		{"reserved separator", []Branch{NamedBranch("a__b", preprocessing.Identity())}},
		{"duplicate names", []Branch{
			NamedBranch("b", preprocessing.Identity()),
			NamedBranch("b", preprocessing.Sqrt()),
		}},
		{"nil component", []Branch{NamedBranch("b", nil)}},
		{"non-transformer", []Branch{NamedBranch("b", 42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFeatureUnion(tt.branches...); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFeatureUnion_ParamRouting(t *testing.T) {
	union, err := NewFeatureUnion(
		NamedBranch("impute", preprocessing.NewSimpleImputer(preprocessing.StrategyMean)),
		NamedBranch("sqrt", preprocessing.Sqrt()),
	)
	if err != nil {
		t.Fatalf("NewFeatureUnion failed: %v", err)
	}

	params := union.GetParams()
	if got := params["impute__strategy"]; got != preprocessing.StrategyMean {
		t.Errorf("impute__strategy = %v, want %q", got, preprocessing.StrategyMean)
	}

	if err := union.SetParams(map[string]interface{}{"impute__strategy": preprocessing.StrategyMedian}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if got := union.GetParams()["impute__strategy"]; got != preprocessing.StrategyMedian {
		t.Errorf("after SetParams, impute__strategy = %v", got)
	}

	if err := union.SetParams(map[string]interface{}{"nosuch__x": 1}); err == nil {
		t.Error("expected error for unknown branch")
	}
}

func TestFeatureUnion_NotFitted(t *testing.T) {
	union, err := NewFeatureUnion(NamedBranch("id", preprocessing.Identity()))
	if err != nil {
		t.Fatalf("NewFeatureUnion failed: %v", err)
	}
	if _, err := union.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("expected not-fitted error")
	}
}

func TestFeatureUnion_InsidePipeline(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 4, 9})

	union, err := NewFeatureUnion(
		NamedBranch("identity", preprocessing.Identity()),
		NamedBranch("sqrt", preprocessing.Sqrt()),
	)
	if err != nil {
		t.Fatalf("NewFeatureUnion failed: %v", err)
	}

	p, err := NewPipeline(
		NamedStep("features", union),
		NamedStep("scale", preprocessing.NewStandardScalerDefault()),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	out, err := p.FitTransform(X, nil)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	r, c := out.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("expected 3x2 output, got %dx%d", r, c)
	}
}
