package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func col(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

func TestAccuracyScore(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect",
			yTrue: []float64{0, 1, 1, 0},
			yPred: []float64{0, 1, 1, 0},
			want:  1,
		},
		{
			name:  "half right",
			yTrue: []float64{0, 1, 1, 0},
			yPred: []float64{0, 1, 0, 1},
			want:  0.5,
		},
		{
			name:  "all wrong",
			yTrue: []float64{0, 0},
			yPred: []float64{1, 1},
			want:  0,
		},
		{
			name:    "length mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccuracyScore(col(tt.yTrue...), col(tt.yPred...))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("AccuracyScore failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := col(0, 0, 1, 1, 2)
	yPred := col(0, 1, 1, 1, 0)

	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("ConfusionMatrix failed: %v", err)
	}

	if len(labels) != 3 || labels[0] != 0 || labels[1] != 1 || labels[2] != 2 {
		t.Fatalf("labels = %v, want [0 1 2]", labels)
	}

	want := [][]float64{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 0},
	}
	for i := range want {
		for j := range want[i] {
			if cm.At(i, j) != want[i][j] {
				t.Errorf("(%d,%d): got %v, want %v", i, j, cm.At(i, j), want[i][j])
			}
		}
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	// TP=2, FP=1, FN=1.
	yTrue := col(1, 1, 1, 0, 0)
	yPred := col(1, 1, 0, 1, 0)

	p, err := PrecisionScore(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("PrecisionScore failed: %v", err)
	}
	if math.Abs(p-2.0/3.0) > 1e-12 {
		t.Errorf("precision = %v, want 2/3", p)
	}

	r, err := RecallScore(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("RecallScore failed: %v", err)
	}
	if math.Abs(r-2.0/3.0) > 1e-12 {
		t.Errorf("recall = %v, want 2/3", r)
	}

	f1, err := F1Score(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("F1Score failed: %v", err)
	}
	if math.Abs(f1-2.0/3.0) > 1e-12 {
		t.Errorf("f1 = %v, want 2/3", f1)
	}
}

func TestUndefinedMetricsReturnZero(t *testing.T) {
	// Nothing predicted positive and nothing actually positive.
	yTrue := col(0, 0, 0)
	yPred := col(0, 0, 0)

	p, err := PrecisionScore(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("PrecisionScore failed: %v", err)
	}
	if p != 0 {
		t.Errorf("undefined precision = %v, want 0", p)
	}

	r, err := RecallScore(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("RecallScore failed: %v", err)
	}
	if r != 0 {
		t.Errorf("undefined recall = %v, want 0", r)
	}

	f1, err := F1Score(yTrue, yPred, 1)
	if err != nil {
		t.Fatalf("F1Score failed: %v", err)
	}
	if f1 != 0 {
		t.Errorf("undefined f1 = %v, want 0", f1)
	}
}

func TestConfusionMatrix_RejectsNonInteger(t *testing.T) {
	if _, _, err := ConfusionMatrix(col(0.5), col(1)); err == nil {
		t.Error("expected error for non-integer label")
	}
}

func TestMetrics_NilInput(t *testing.T) {
	if _, err := AccuracyScore(nil, col(1)); err == nil {
		t.Error("expected error for nil labels")
	}
	if _, err := AccuracyScore(col(1), col(1, 2)); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}
