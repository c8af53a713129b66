// Package preprocessing provides transformers that prepare raw tabular data
// for model training: missing value imputation, scaling, categorical
// encoding, column selection and stateless function transforms. Every
// transformer follows the Fit/Transform contract from core/model.
package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// Imputation strategies supported by SimpleImputer.
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
	StrategyConstant     = "constant"
)

// SimpleImputer replaces missing values (NaN) with a per-column statistic
// computed during Fit.
//
// Strategies:
//   - mean: column mean of the non-missing values
//   - median: column median of the non-missing values
//   - most_frequent: most frequent non-missing value (ties break to the
//     smallest value, matching scikit-learn)
//   - constant: a fixed FillValue for every column
//
// A column whose training values are all missing imputes to 0 and raises an
// UndefinedMetricWarning through the library warning handler.
type SimpleImputer struct {
	model.BaseEstimator

	// Strategy selects how the fill statistic is computed.
	Strategy string

	// FillValue is the value used by the constant strategy.
	FillValue float64

	// Statistics holds the per-feature fill value computed during Fit.
	Statistics []float64

	// NFeatures is the number of features seen during Fit.
	NFeatures int
}

// NewSimpleImputer creates a SimpleImputer with the given strategy.
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{Strategy: strategy}
}

// NewConstantImputer creates a SimpleImputer that fills with a constant.
func NewConstantImputer(fillValue float64) *SimpleImputer {
	return &SimpleImputer{Strategy: StrategyConstant, FillValue: fillValue}
}

func validStrategy(s string) bool {
	switch s {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant:
		return true
	}
	return false
}

// Fit computes the fill statistic for each column of X, ignoring NaN.
func (im *SimpleImputer) Fit(X mat.Matrix) error {
	if !validStrategy(im.Strategy) {
		return errors.NewValidationError("strategy", "must be one of mean, median, most_frequent, constant", im.Strategy)
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	im.NFeatures = c
	im.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		if im.Strategy == StrategyConstant {
			im.Statistics[j] = im.FillValue
			continue
		}

		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}

		if len(observed) == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning(
				fmt.Sprintf("SimpleImputer(%s)", im.Strategy),
				fmt.Sprintf("column %d contains only missing values", j),
				0,
			))
			im.Statistics[j] = 0
			continue
		}

		switch im.Strategy {
		case StrategyMean:
			im.Statistics[j] = stat.Mean(observed, nil)
		case StrategyMedian:
			sort.Float64s(observed)
			im.Statistics[j] = stat.Quantile(0.5, stat.Empirical, observed, nil)
		case StrategyMostFrequent:
			im.Statistics[j] = mostFrequent(observed)
		}
	}

	im.SetFitted()
	return nil
}

// mostFrequent returns the modal value, smallest value first on ties.
func mostFrequent(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best := values[0]
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best = v
			bestCount = n
		}
	}
	return best
}

// Transform replaces every NaN in X with the statistic of its column.
func (im *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !im.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}

	r, c := X.Dims()
	if c != im.NFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", im.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = im.Statistics[j]
			}
			result.Set(i, j, v)
		}
	}

	return result, nil
}

// FitTransform fits on X and transforms the same X.
func (im *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := im.Fit(X); err != nil {
		return nil, err
	}
	return im.Transform(X)
}

// GetParams returns the imputer's hyperparameters.
func (im *SimpleImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy":   im.Strategy,
		"fill_value": im.FillValue,
	}
}

// SetParams sets the imputer's hyperparameters and resets the fitted state.
func (im *SimpleImputer) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "strategy":
			s, ok := v.(string)
			if !ok || !validStrategy(s) {
				return errors.NewValidationError(k, "must be one of mean, median, most_frequent, constant", v)
			}
			im.Strategy = s
		case "fill_value":
			f, ok := toFloat(v)
			if !ok {
				return errors.NewValidationError(k, "must be numeric", v)
			}
			im.FillValue = f
		default:
			return errors.NewValidationError(k, "unknown parameter for SimpleImputer", v)
		}
	}
	im.Reset()
	return nil
}

// CloneTransformer returns an unfitted copy with the same configuration.
func (im *SimpleImputer) CloneTransformer() model.Transformer {
	return &SimpleImputer{Strategy: im.Strategy, FillValue: im.FillValue}
}

// String returns a readable representation of the imputer.
func (im *SimpleImputer) String() string {
	if im.Strategy == StrategyConstant {
		return fmt.Sprintf("SimpleImputer(strategy=%q, fill_value=%g)", im.Strategy, im.FillValue)
	}
	return fmt.Sprintf("SimpleImputer(strategy=%q)", im.Strategy)
}

// toFloat converts the numeric types that reach SetParams through
// map[string]interface{} param grids.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
