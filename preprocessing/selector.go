package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// ColumnSelector projects a fixed set of column indices out of its input.
//
// It is the entry step of per-column-group pipelines: inside a FeatureUnion,
// one branch selects the numeric columns and imputes/scales them while
// another selects the categorical columns and one-hot encodes them.
type ColumnSelector struct {
	// Columns holds the input column indices to keep, in output order.
	Columns []int

	nFeatures int
	fitted    bool
}

// NewColumnSelector creates a ColumnSelector for the given column indices.
func NewColumnSelector(columns ...int) *ColumnSelector {
	return &ColumnSelector{Columns: columns}
}

// Fit records the input width so Transform can validate its input.
func (cs *ColumnSelector) Fit(X mat.Matrix) error {
	_, c := X.Dims()
	if len(cs.Columns) == 0 {
		return errors.NewValidationError("columns", "must select at least one column", cs.Columns)
	}
	for _, j := range cs.Columns {
		if j < 0 || j >= c {
			return errors.NewValidationError("columns",
				fmt.Sprintf("index out of range for %d input features", c), j)
		}
	}
	cs.nFeatures = c
	cs.fitted = true
	return nil
}

// Transform returns the selected columns of X in the configured order.
func (cs *ColumnSelector) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !cs.fitted {
		return nil, errors.NewNotFittedError("ColumnSelector", "Transform")
	}

	r, c := X.Dims()
	if c != cs.nFeatures {
		return nil, errors.NewDimensionError("ColumnSelector.Transform", cs.nFeatures, c, 1)
	}

	result := mat.NewDense(r, len(cs.Columns), nil)
	for i := 0; i < r; i++ {
		for k, j := range cs.Columns {
			result.Set(i, k, X.At(i, j))
		}
	}
	return result, nil
}

// FitTransform fits on X and transforms the same X.
func (cs *ColumnSelector) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := cs.Fit(X); err != nil {
		return nil, err
	}
	return cs.Transform(X)
}

// CloneTransformer returns an unfitted copy with the same configuration.
func (cs *ColumnSelector) CloneTransformer() model.Transformer {
	cols := make([]int, len(cs.Columns))
	copy(cols, cs.Columns)
	return &ColumnSelector{Columns: cols}
}

// String returns a readable representation of the selector.
func (cs *ColumnSelector) String() string {
	return fmt.Sprintf("ColumnSelector(columns=%v)", cs.Columns)
}
