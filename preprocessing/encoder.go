package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// Unknown-category policies for OneHotEncoder.
const (
	HandleUnknownError  = "error"
	HandleUnknownIgnore = "ignore"
)

// OneHotEncoder expands integer-coded categorical columns into indicator
// columns, one per category seen during Fit.
//
// Input columns are expected to hold integer-valued float64 codes (the
// representation produced by dataset loading and LabelEncoder). Fit learns
// the sorted category vocabulary of every column; Transform replaces column
// j by len(vocab_j) indicator columns in vocabulary order. Output columns
// keep the input column order: all indicators of column 0 first, then
// column 1, and so on.
//
// A NaN input encodes as all zeros (missing category). A category not seen
// during Fit is an error under HandleUnknownError and encodes as all zeros
// under HandleUnknownIgnore.
type OneHotEncoder struct {
	model.BaseEstimator

	// HandleUnknown selects the policy for categories unseen during Fit.
	HandleUnknown string

	// Categories holds the sorted vocabulary of each input column.
	Categories [][]float64

	// NFeatures is the number of input features seen during Fit.
	NFeatures int

	// index[j] maps a category code of column j to its indicator offset.
	index []map[float64]int
}

// NewOneHotEncoder creates a OneHotEncoder with the error policy for
// unknown categories.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{HandleUnknown: HandleUnknownError}
}

// Fit learns the category vocabulary of each column of X.
func (e *OneHotEncoder) Fit(X mat.Matrix) error {
	if e.HandleUnknown != HandleUnknownError && e.HandleUnknown != HandleUnknownIgnore {
		return errors.NewValidationError("handle_unknown", "must be \"error\" or \"ignore\"", e.HandleUnknown)
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	e.NFeatures = c
	e.Categories = make([][]float64, c)
	e.index = make([]map[float64]int, c)

	for j := 0; j < c; j++ {
		seen := make(map[float64]struct{})
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			if v != math.Trunc(v) {
				return errors.NewValueError("OneHotEncoder.Fit",
					fmt.Sprintf("column %d contains non-integer value %g; encode categories as integer codes", j, v))
			}
			seen[v] = struct{}{}
		}
		if len(seen) == 0 {
			return errors.NewValueError("OneHotEncoder.Fit",
				fmt.Sprintf("column %d contains only missing values", j))
		}

		vocab := make([]float64, 0, len(seen))
		for v := range seen {
			vocab = append(vocab, v)
		}
		sort.Float64s(vocab)
		e.Categories[j] = vocab

		e.index[j] = make(map[float64]int, len(vocab))
		for k, v := range vocab {
			e.index[j][v] = k
		}
	}

	e.SetFitted()
	return nil
}

// Transform one-hot encodes X using the vocabularies learned during Fit.
func (e *OneHotEncoder) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	r, c := X.Dims()
	if c != e.NFeatures {
		return nil, errors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, c, 1)
	}

	outCols := 0
	offsets := make([]int, c)
	for j := 0; j < c; j++ {
		offsets[j] = outCols
		outCols += len(e.Categories[j])
	}

	result := mat.NewDense(r, outCols, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				continue // missing encodes as all zeros
			}
			k, ok := e.index[j][v]
			if !ok {
				if e.HandleUnknown == HandleUnknownIgnore {
					continue
				}
				return nil, errors.Wrapf(errors.ErrUnknownCategory,
					"OneHotEncoder.Transform: category %g in column %d (row %d) was not seen during Fit", v, j, i)
			}
			result.Set(i, offsets[j]+k, 1)
		}
	}

	return result, nil
}

// FitTransform fits on X and transforms the same X.
func (e *OneHotEncoder) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// NOutputFeatures returns the number of columns Transform produces.
func (e *OneHotEncoder) NOutputFeatures() (int, error) {
	if !e.IsFitted() {
		return 0, errors.NewNotFittedError("OneHotEncoder", "NOutputFeatures")
	}
	n := 0
	for _, vocab := range e.Categories {
		n += len(vocab)
	}
	return n, nil
}

// GetParams returns the encoder's hyperparameters.
func (e *OneHotEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"handle_unknown": e.HandleUnknown,
	}
}

// SetParams sets the encoder's hyperparameters and resets the fitted state.
func (e *OneHotEncoder) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "handle_unknown":
			s, ok := v.(string)
			if !ok || (s != HandleUnknownError && s != HandleUnknownIgnore) {
				return errors.NewValidationError(k, "must be \"error\" or \"ignore\"", v)
			}
			e.HandleUnknown = s
		default:
			return errors.NewValidationError(k, "unknown parameter for OneHotEncoder", v)
		}
	}
	e.Reset()
	return nil
}

// CloneTransformer returns an unfitted copy with the same configuration.
func (e *OneHotEncoder) CloneTransformer() model.Transformer {
	return &OneHotEncoder{HandleUnknown: e.HandleUnknown}
}

// String returns a readable representation of the encoder.
func (e *OneHotEncoder) String() string {
	return fmt.Sprintf("OneHotEncoder(handle_unknown=%q)", e.HandleUnknown)
}

// LabelEncoder maps arbitrary string labels to integer codes in first-seen
// order. It is a vocabulary helper rather than a matrix transformer; the
// dataset package uses it when reading categorical CSV columns.
type LabelEncoder struct {
	// Classes holds the labels in code order.
	Classes []string

	index map[string]int
}

// NewLabelEncoder creates an empty LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{index: make(map[string]int)}
}

// FitTransform encodes labels, extending the vocabulary with unseen ones.
func (le *LabelEncoder) FitTransform(labels []string) []int {
	out := make([]int, len(labels))
	for i, s := range labels {
		code, ok := le.index[s]
		if !ok {
			code = len(le.Classes)
			le.Classes = append(le.Classes, s)
			le.index[s] = code
		}
		out[i] = code
	}
	return out
}

// Transform encodes labels using the existing vocabulary only.
func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, s := range labels {
		code, ok := le.index[s]
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownCategory, "LabelEncoder.Transform: label %q", s)
		}
		out[i] = code
	}
	return out, nil
}
