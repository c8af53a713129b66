package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance.
//
// Fit computes the per-column mean and standard deviation of the training
// data; Transform applies (x - mean) / std using the stored statistics, so
// data transformed after fitting is scaled with the training statistics even
// when it comes from a different sample.
type StandardScaler struct {
	model.BaseEstimator

	// Mean holds the per-feature mean computed during Fit.
	Mean []float64

	// Scale holds the per-feature standard deviation computed during Fit.
	Scale []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int

	// WithMean controls whether the mean is subtracted (default true).
	WithMean bool

	// WithStd controls whether values are divided by the standard deviation
	// (default true).
	WithStd bool
}

// NewStandardScaler creates a StandardScaler.
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with default settings.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the mean and standard deviation of each column of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	} else {
		for j := 0; j < c; j++ {
			s.Mean[j] = 0.0
		}
	}

	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.Scale[j] = math.Sqrt(variance)

			// Constant columns get scale 1 to avoid division by zero.
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes X using the statistics learned during Fit.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			result.Set(i, j, (value-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform fits on X and transforms the same X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			result.Set(i, j, value*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's hyperparameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// SetParams sets the scaler's hyperparameters and resets the fitted state.
func (s *StandardScaler) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "with_mean":
			b, ok := v.(bool)
			if !ok {
				return errors.NewValidationError(k, "must be a bool", v)
			}
			s.WithMean = b
		case "with_std":
			b, ok := v.(bool)
			if !ok {
				return errors.NewValidationError(k, "must be a bool", v)
			}
			s.WithStd = b
		default:
			return errors.NewValidationError(k, "unknown parameter for StandardScaler", v)
		}
	}
	s.Reset()
	return nil
}

// CloneTransformer returns an unfitted copy with the same configuration.
func (s *StandardScaler) CloneTransformer() model.Transformer {
	return NewStandardScaler(s.WithMean, s.WithStd)
}

// String returns a readable representation of the scaler.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
