// Package model provides the shared interfaces and base types for estimators,
// transformers and predictors. The interface split mirrors scikit-learn's
// estimator API: anything that learns parameters is a Fitter, anything that
// maps data to data is a Transformer, anything that maps data to labels is a
// Predictor.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a quality score
// (accuracy for classifiers) on labeled data.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier combines the interfaces implemented by classification models.
type Classifier interface {
	Estimator
	Scorer

	// PredictProba returns per-class probability estimates, one column per
	// class in the order reported by Classes.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting.
	Classes() []int
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models whose hyperparameters can be
// changed after construction. Setting a parameter resets the fitted state.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// TunableEstimator is the contract required by hyperparameter search: the
// estimator can be cloned into a fresh unfitted copy, reconfigured, fitted
// and used for prediction.
type TunableEstimator interface {
	Estimator
	ParameterGetter
	ParameterSetter

	// Clone returns an unfitted copy carrying the same hyperparameters.
	Clone() TunableEstimator
}

// TransformerCloner is implemented by transformers that can produce a fresh
// unfitted copy of themselves with the same configuration. Hyperparameter
// search clones whole pipelines, transformers included, so that candidates
// never share fitted state.
type TransformerCloner interface {
	CloneTransformer() Transformer
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
