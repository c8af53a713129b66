// Package pipelearn provides composable machine learning pipelines for Go,
// modeled on scikit-learn's Pipeline and FeatureUnion.
//
// Pipelearn chains preprocessing transformers and estimators into a single
// object that is fitted once, applied consistently to training and test
// data, and tuned end to end with cross-validated grid search.
//
// # Features
//
// - Sequential pipelines: named steps with fit-then-transform semantics
// - Parallel feature unions: concurrent branches concatenated column-wise
// - Preprocessing: imputation, standardization, one-hot encoding,
// column selection and function transformers
// - Models: CART decision trees and random forests with NaN-aware splits
// - Model selection: seeded train/test split, k-fold cross-validation and
// exhaustive grid search with "step__param" routing
// - Deterministic: every random component takes an explicit seed
//
// # Installation
//
// Install pipelearn using go get:
//
//	go get github.com/harukimoto/pipelearn
//
// # Quick Start
//
// A pipeline that imputes missing values, standardizes the result and
// classifies with a random forest:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/harukimoto/pipelearn/ensemble"
//	    "github.com/harukimoto/pipelearn/pipeline"
//	    "github.com/harukimoto/pipelearn/preprocessing"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{1, 10, 2, 20, 3, 30, 4, 40})
//	    y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
//
//	    p, err := pipeline.NewPipeline(
//	        pipeline.NamedStep("imputer", preprocessing.NewSimpleImputer(preprocessing.StrategyMean)),
//	        pipeline.NamedStep("scaler", preprocessing.NewStandardScalerDefault()),
//	        pipeline.NamedStep("model", ensemble.NewRandomForestClassifier(
//	            ensemble.WithNEstimators(50),
//	            ensemble.WithRandomState(42),
//	        )),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    if err := p.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//	    pred, err := p.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(pred))
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - pipeline: Pipeline and FeatureUnion composition
//   - preprocessing: SimpleImputer, StandardScaler, OneHotEncoder,
//     ColumnSelector, FunctionTransformer
//   - tree: DecisionTreeClassifier
//   - ensemble: RandomForestClassifier
//   - modelselection: TrainTestSplit, KFold, GridSearchCV
//   - metrics: accuracy, confusion matrix, precision, recall, F1
//   - dataset: bundled example data loaders
//   - visualize: score curves rendered with gonum/plot
//   - core/model: estimator interfaces and persistence
//   - pkg/errors: structured error types and warnings
//   - pkg/log: structured logging setup
//
// # Data Conventions
//
// Features are gonum mat.Matrix values with one row per sample. Missing
// values are NaN. Labels are n x 1 matrices holding integer-valued
// float64s.
package pipelearn
