// Package pipeline provides sequential (Pipeline) and parallel
// (FeatureUnion) composition of transformers and estimators.
//
// A Pipeline chains named steps: every step but the last must be a
// transformer, the last may be a transformer or a predictor. Fitting runs
// fit-then-transform through the intermediate steps and fits the final step
// on the fully transformed data; prediction replays the stored
// transformations and delegates to the final step. A pipeline whose steps
// are all transformers is itself usable as a transformer, which is how
// per-column-group branches are built inside a FeatureUnion.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
	mllog "github.com/harukimoto/pipelearn/pkg/log"
)

// Step is a named pipeline stage.
type Step struct {
	Name      string
	Component interface{}
}

// NamedStep is a convenience constructor for Step.
func NamedStep(name string, component interface{}) Step {
	return Step{Name: name, Component: component}
}

// Pipeline is a sequential composition of transformers ending in an
// estimator or a transformer.
type Pipeline struct {
	steps  []Step
	fitted bool
}

// transformCapable is any step that can transform data once fitted.
type transformCapable interface {
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// probaPredictor is a final step that can estimate class probabilities.
type probaPredictor interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// NewPipeline creates a Pipeline from named steps.
//
// Validation rules:
//   - at least one step
//   - step names are unique, non-empty and free of "__" (reserved for
//     parameter routing)
//   - every step except the last can transform data
//   - every step can be fitted (transformer or estimator)
func NewPipeline(steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.NewValidationError("steps", "pipeline needs at least one step", nil)
	}

	seen := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		if step.Name == "" {
			return nil, errors.NewValidationError("steps", fmt.Sprintf("step %d has an empty name", i), nil)
		}
		if strings.Contains(step.Name, "__") {
			return nil, errors.NewValidationError("steps", "step names must not contain \"__\"", step.Name)
		}
		if _, dup := seen[step.Name]; dup {
			return nil, errors.NewValidationError("steps", "duplicate step name", step.Name)
		}
		seen[step.Name] = struct{}{}

		if step.Component == nil {
			return nil, errors.NewValidationError("steps", "step component must not be nil", step.Name)
		}
		if !canFit(step.Component) {
			return nil, errors.NewValidationError("steps",
				"component implements neither Transformer nor Fitter", step.Name)
		}
		if i < len(steps)-1 {
			if _, ok := step.Component.(transformCapable); !ok {
				return nil, errors.NewValidationError("steps",
					"intermediate step cannot transform data", step.Name)
			}
		}
	}

	return &Pipeline{steps: steps}, nil
}

func canFit(component interface{}) bool {
	switch component.(type) {
	case model.Transformer, model.SupervisedTransformer, model.Fitter:
		return true
	}
	return false
}

// fitComponent dispatches Fit over the supported component shapes. The
// unsupervised Transformer shape is checked first: its single-argument Fit
// cannot coexist with the supervised two-argument one on the same type.
func fitComponent(name string, component interface{}, X, y mat.Matrix) error {
	switch c := component.(type) {
	case model.Transformer:
		return c.Fit(X)
	case model.SupervisedTransformer:
		return c.Fit(X, y)
	case model.Fitter:
		return c.Fit(X, y)
	}
	return errors.NewValidationError("steps", "component implements neither Transformer nor Fitter", name)
}

// Steps returns the pipeline's steps in order.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// NamedStep returns the component registered under name.
func (p *Pipeline) NamedStep(name string) (interface{}, bool) {
	for _, step := range p.steps {
		if step.Name == name {
			return step.Component, true
		}
	}
	return nil, false
}

// Fit fits every step in order: intermediate steps are fitted and then used
// to transform the running data, and the final step is fitted on the result.
// y may be nil when the final step is an unsupervised transformer.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	cur := X
	for i, step := range p.steps {
		if err := fitComponent(step.Name, step.Component, cur, y); err != nil {
			return errors.Wrapf(err, "pipeline step %q", step.Name)
		}
		if i == len(p.steps)-1 {
			break
		}
		next, err := step.Component.(transformCapable).Transform(cur)
		if err != nil {
			return errors.Wrapf(err, "pipeline step %q", step.Name)
		}
		cur = next
	}

	r, c := X.Dims()
	slog.Debug("pipeline fitted",
		slog.String(mllog.ModelNameKey, "Pipeline"),
		slog.String(mllog.OperationKey, "fit"),
		slog.Int(mllog.SamplesKey, r),
		slog.Int(mllog.FeaturesKey, c),
	)

	p.fitted = true
	return nil
}

// transformUpTo replays the fitted transformations of steps [0, end).
func (p *Pipeline) transformUpTo(X mat.Matrix, end int) (mat.Matrix, error) {
	cur := X
	for _, step := range p.steps[:end] {
		next, err := step.Component.(transformCapable).Transform(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline step %q", step.Name)
		}
		cur = next
	}
	return cur, nil
}

// Predict transforms X through the intermediate steps and predicts with the
// final step.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	final, ok := p.steps[len(p.steps)-1].Component.(model.Predictor)
	if !ok {
		return nil, errors.NewValueError("Pipeline.Predict", "final step is not a predictor")
	}
	cur, err := p.transformUpTo(X, len(p.steps)-1)
	if err != nil {
		return nil, err
	}
	return final.Predict(cur)
}

// PredictProba transforms X through the intermediate steps and returns the
// final step's class probability estimates.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("Pipeline", "PredictProba")
	}
	final, ok := p.steps[len(p.steps)-1].Component.(probaPredictor)
	if !ok {
		return nil, errors.NewValueError("Pipeline.PredictProba", "final step does not estimate probabilities")
	}
	cur, err := p.transformUpTo(X, len(p.steps)-1)
	if err != nil {
		return nil, err
	}
	return final.PredictProba(cur)
}

// Transform runs X through every step. All steps must be able to transform;
// this is how all-transformer pipelines serve as FeatureUnion branches.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}
	for _, step := range p.steps {
		if _, ok := step.Component.(transformCapable); !ok {
			return nil, errors.NewValueError("Pipeline.Transform",
				fmt.Sprintf("step %q cannot transform data", step.Name))
		}
	}
	return p.transformUpTo(X, len(p.steps))
}

// FitTransform fits the pipeline and transforms the same X.
func (p *Pipeline) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X, y); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// Score transforms X and delegates scoring to the final step.
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	if !p.fitted {
		return 0, errors.NewNotFittedError("Pipeline", "Score")
	}
	final, ok := p.steps[len(p.steps)-1].Component.(model.Scorer)
	if !ok {
		return 0, errors.NewValueError("Pipeline.Score", "final step cannot score")
	}
	cur, err := p.transformUpTo(X, len(p.steps)-1)
	if err != nil {
		return 0, err
	}
	return final.Score(cur, y)
}

// GetParams returns the hyperparameters of every step that exposes them,
// flattened with the "step__param" naming convention.
func (p *Pipeline) GetParams() map[string]interface{} {
	out := make(map[string]interface{})
	for _, step := range p.steps {
		if getter, ok := step.Component.(model.ParameterGetter); ok {
			for k, v := range getter.GetParams() {
				out[step.Name+"__"+k] = v
			}
		}
	}
	return out
}

// SetParams routes "step__param" keys to the named steps. Setting any
// parameter resets the pipeline's fitted state.
func (p *Pipeline) SetParams(params map[string]interface{}) error {
	grouped := make(map[string]map[string]interface{})
	for key, value := range params {
		name, rest, ok := strings.Cut(key, "__")
		if !ok {
			return errors.NewValidationError(key, "pipeline parameters use the \"step__param\" form", value)
		}
		if _, found := p.NamedStep(name); !found {
			return errors.NewValidationError(key, "no pipeline step named "+name, value)
		}
		if grouped[name] == nil {
			grouped[name] = make(map[string]interface{})
		}
		grouped[name][rest] = value
	}

	for name, stepParams := range grouped {
		component, _ := p.NamedStep(name)
		setter, ok := component.(model.ParameterSetter)
		if !ok {
			return errors.NewValueError("Pipeline.SetParams",
				fmt.Sprintf("step %q does not accept parameters", name))
		}
		if err := setter.SetParams(stepParams); err != nil {
			return errors.Wrapf(err, "pipeline step %q", name)
		}
	}

	p.fitted = false
	return nil
}

// Clone returns an unfitted copy of the pipeline with every step cloned.
func (p *Pipeline) Clone() model.TunableEstimator {
	cloned := make([]Step, len(p.steps))
	for i, step := range p.steps {
		cloned[i] = Step{Name: step.Name, Component: cloneComponent(step.Component)}
	}
	return &Pipeline{steps: cloned}
}

// cloneComponent produces a fresh unfitted copy of a step component. A
// component without any clone support is reused as-is; that is only safe for
// stateless components and is the caller's responsibility.
func cloneComponent(component interface{}) interface{} {
	switch c := component.(type) {
	case model.TunableEstimator:
		return c.Clone()
	case model.TransformerCloner:
		return c.CloneTransformer()
	case *FeatureUnion:
		return c.Clone()
	}
	return component
}

// String returns a readable representation of the pipeline.
func (p *Pipeline) String() string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name
	}
	return fmt.Sprintf("Pipeline(steps=[%s])", strings.Join(names, ", "))
}
