// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys keeps log records from different estimators queryable with
// the same filters. The keys follow a hierarchical naming convention
// (e.g. "model.name", "data.samples").
package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model or transformer.
	// Examples: "RandomForestClassifier", "StandardScaler", "Pipeline"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "ensemble", "preprocessing", "modelselection"
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) in the dataset.
	FeaturesKey = "data.features"
)

// Search and evaluation.
const (
	// CandidateKey is the index of a hyperparameter candidate in a search.
	CandidateKey = "search.candidate"

	// FoldKey is the index of a cross-validation fold.
	FoldKey = "search.fold"

	// ScoreKey is an evaluation score such as accuracy.
	ScoreKey = "ml.score"

	// DurationMsKey is the elapsed wall time of an operation in milliseconds.
	DurationMsKey = "duration.ms"
)
