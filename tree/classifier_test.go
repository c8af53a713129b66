package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDecisionTreeClassifier_FitPredict(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	dt := NewDecisionTreeClassifier(WithMaxDepth(5))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("row %d: predicted %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}

	acc, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if acc != 1 {
		t.Errorf("training accuracy = %v, want 1", acc)
	}
}

func TestDecisionTreeClassifier_Entropy(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 10, 11})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	dt := NewDecisionTreeClassifier(WithCriterion(CriterionEntropy))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	acc, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if acc != 1 {
		t.Errorf("training accuracy = %v, want 1", acc)
	}
}

func TestDecisionTreeClassifier_MissingValues(t *testing.T) {
	nan := math.NaN()
	// Feature 0 separates the classes; some rows miss it.
	X := mat.NewDense(8, 1, []float64{1, 2, 1.5, nan, 10, 11, nan, 10.5})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit with missing values failed: %v", err)
	}

	// Rows with observed values classify by threshold.
	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{1.2, 10.8}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.At(0, 0) != 0 || pred.At(1, 0) != 1 {
		t.Errorf("predictions = [%v %v], want [0 1]", pred.At(0, 0), pred.At(1, 0))
	}

	// A missing value at predict time still yields a valid class.
	pred, err = dt.Predict(mat.NewDense(1, 1, []float64{nan}))
	if err != nil {
		t.Fatalf("Predict with NaN failed: %v", err)
	}
	if got := pred.At(0, 0); got != 0 && got != 1 {
		t.Errorf("prediction for missing value = %v, want a known class", got)
	}
}

func TestDecisionTreeClassifier_PredictProba(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 10, 11})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	probas, err := dt.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	r, c := probas.Dims()
	if r != 4 || c != 2 {
		t.Fatalf("expected 4x2 probabilities, got %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		sum := probas.At(i, 0) + probas.At(i, 1)
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("row %d: probabilities sum to %v", i, sum)
		}
	}

	classes := dt.Classes()
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 1 {
		t.Errorf("Classes = %v, want [0 1]", classes)
	}
}

func TestDecisionTreeClassifier_Deterministic(t *testing.T) {
	X := mat.NewDense(6, 3, []float64{
		1, 5, 2,
		2, 4, 3,
		1.5, 6, 2.5,
		8, 1, 9,
		9, 2, 8,
		8.5, 1.5, 9.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	a := NewDecisionTreeClassifier(WithMaxFeatures(2), WithRandomState(42))
	b := NewDecisionTreeClassifier(WithMaxFeatures(2), WithRandomState(42))
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	predA, err := a.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	predB, err := b.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if !mat.Equal(predA, predB) {
		t.Error("same seed produced different trees")
	}
}

func TestDecisionTreeClassifier_MaxDepthLimitsFit(t *testing.T) {
	// Class 1 sits in the middle interval, so one split cannot separate it.
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(6, 1, []float64{0, 0, 1, 1, 0, 0})

	shallow := NewDecisionTreeClassifier(WithMaxDepth(1))
	if err := shallow.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	accShallow, err := shallow.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	deep := NewDecisionTreeClassifier(WithMaxDepth(3))
	if err := deep.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	accDeep, err := deep.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if accDeep < accShallow {
		t.Errorf("deeper tree scored %v, shallow %v", accDeep, accShallow)
	}
	if accDeep != 1 {
		t.Errorf("depth-3 tree should separate the middle interval, accuracy = %v", accDeep)
	}
}

func TestDecisionTreeClassifier_ValidationErrors(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	X := mat.NewDense(2, 1, []float64{1, 2})

	if _, err := dt.Predict(X); err == nil {
		t.Error("expected not-fitted error")
	}
	if err := dt.Fit(X, mat.NewDense(3, 1, []float64{0, 1, 0})); err == nil {
		t.Error("expected dimension error for mismatched labels")
	}
	if err := dt.Fit(X, mat.NewDense(2, 1, []float64{0.5, 1})); err == nil {
		t.Error("expected error for non-integer labels")
	}

	bad := NewDecisionTreeClassifier(WithCriterion("chi2"))
	if err := bad.Fit(X, mat.NewDense(2, 1, []float64{0, 1})); err == nil {
		t.Error("expected error for unknown criterion")
	}
}

func TestDecisionTreeClassifier_Params(t *testing.T) {
	dt := NewDecisionTreeClassifier(WithMaxDepth(4), WithRandomState(7))

	params := dt.GetParams()
	if params["max_depth"] != 4 {
		t.Errorf("max_depth = %v, want 4", params["max_depth"])
	}

	if err := dt.SetParams(map[string]interface{}{"max_depth": 2, "min_samples_leaf": 3}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if dt.MaxDepth != 2 || dt.MinSamplesLeaf != 3 {
		t.Errorf("params not applied: max_depth=%d min_samples_leaf=%d", dt.MaxDepth, dt.MinSamplesLeaf)
	}

	if err := dt.SetParams(map[string]interface{}{"bogus": 1}); err == nil {
		t.Error("expected error for unknown parameter")
	}

	clone := dt.Clone()
	cloned, ok := clone.(*DecisionTreeClassifier)
	if !ok {
		t.Fatal("Clone did not return a *DecisionTreeClassifier")
	}
	if cloned.MaxDepth != 2 || cloned.RandomState != 7 {
		t.Errorf("clone lost configuration: %+v", cloned)
	}
}
