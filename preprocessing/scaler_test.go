package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler_ZeroMeanUnitStd(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		1, 100,
		2, 200,
		3, 300,
		4, 400,
		5, 500,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := scaled.Dims()
	if r != 5 || c != 2 {
		t.Fatalf("expected 5x2 output, got %dx%d", r, c)
	}

	for j := 0; j < c; j++ {
		mean := 0.0
		for i := 0; i < r; i++ {
			mean += scaled.At(i, j)
		}
		mean /= float64(r)
		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d: mean = %v, want ~0", j, mean)
		}

		variance := 0.0
		for i := 0; i < r; i++ {
			d := scaled.At(i, j) - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(r))
		if math.Abs(std-1) > 1e-10 {
			t.Errorf("column %d: std = %v, want ~1", j, std)
		}
	}
}

func TestStandardScaler_InverseTransformRoundTrip(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	back, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(back.At(i, j)-X.At(i, j)) > 1e-10 {
				t.Errorf("(%d,%d): got %v, want %v", i, j, back.At(i, j), X.At(i, j))
			}
		}
	}
}

func TestStandardScaler_ConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{7, 7, 7})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Constant columns scale to 0 instead of dividing by zero.
	for i := 0; i < 3; i++ {
		if scaled.At(i, 0) != 0 {
			t.Errorf("row %d: got %v, want 0", i, scaled.At(i, 0))
		}
	}
}

func TestStandardScaler_NotFitted(t *testing.T) {
	scaler := NewStandardScalerDefault()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("expected not-fitted error")
	}
}

func TestStandardScaler_DimensionMismatch(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	_, err := scaler.Transform(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))
	if err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestStandardScaler_CloneIsUnfitted(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 1, []float64{1, 3})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	clone := scaler.CloneTransformer()
	if _, err := clone.Transform(mat.NewDense(1, 1, []float64{2})); err == nil {
		t.Fatal("clone should not be fitted")
	}
}
