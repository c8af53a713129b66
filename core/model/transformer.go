package model

import "gonum.org/v1/gonum/mat"

// Transformer is the interface for data transformations.
type Transformer interface {
	// Fit learns any statistics needed for the transformation.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and transforms the same X.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// SupervisedTransformer is the interface for transformations whose Fit may
// consume labels. Pipelines of transformers satisfy this shape: labels are
// threaded through Fit, but Transform must never use them.
type SupervisedTransformer interface {
	// Fit learns the transformation parameters. y may be nil.
	Fit(X, y mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)
}
