package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// FunctionTransformer applies a stateless elementwise function to its input.
//
// It is the template for custom transformers: Fit computes nothing, stores
// nothing and never fails; Transform maps the input to the output and must
// not look at labels. Combined in a FeatureUnion, FunctionTransformers
// build derived feature blocks such as [X, sqrt(X), X^2].
type FunctionTransformer struct {
	// Name is used in error messages, e.g. "sqrt".
	Name string

	// Func is the elementwise mapping. Required.
	Func func(float64) float64
}

// NewFunctionTransformer creates a FunctionTransformer.
func NewFunctionTransformer(name string, fn func(float64) float64) *FunctionTransformer {
	return &FunctionTransformer{Name: name, Func: fn}
}

// Identity returns a transformer that passes values through unchanged.
func Identity() *FunctionTransformer {
	return NewFunctionTransformer("identity", func(v float64) float64 { return v })
}

// Sqrt returns a transformer that takes the square root of every value.
func Sqrt() *FunctionTransformer {
	return NewFunctionTransformer("sqrt", math.Sqrt)
}

// Square returns a transformer that squares every value.
func Square() *FunctionTransformer {
	return NewFunctionTransformer("square", func(v float64) float64 { return v * v })
}

// Fit is a no-op: the transformer is stateless. It returns nil
// unconditionally.
func (t *FunctionTransformer) Fit(X mat.Matrix) error {
	if t.Func == nil {
		return errors.NewValidationError("func", "must not be nil", nil)
	}
	return nil
}

// Transform applies the function to every element of X. Panics inside the
// user-supplied function are recovered and returned as errors.
func (t *FunctionTransformer) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "FunctionTransformer("+t.Name+").Transform")

	if t.Func == nil {
		return nil, errors.NewValidationError("func", "must not be nil", nil)
	}

	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, t.Func(X.At(i, j)))
		}
	}
	return result, nil
}

// FitTransform fits on X and transforms the same X.
func (t *FunctionTransformer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := t.Fit(X); err != nil {
		return nil, err
	}
	return t.Transform(X)
}

// CloneTransformer returns a copy of the transformer. FunctionTransformers
// hold no fitted state, so the copy shares the function value.
func (t *FunctionTransformer) CloneTransformer() model.Transformer {
	return NewFunctionTransformer(t.Name, t.Func)
}

// String returns a readable representation of the transformer.
func (t *FunctionTransformer) String() string {
	return "FunctionTransformer(" + t.Name + ")"
}
