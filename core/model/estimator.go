package model

import "gonum.org/v1/gonum/mat"

// Fitter is the interface for models that learn from labeled data.
type Fitter interface {
	// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that produce predictions.
type Predictor interface {
	// Predict returns predictions for X as an n_samples x 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is the basic interface for supervised models.
type Estimator interface {
	Fitter
	Predictor
}
