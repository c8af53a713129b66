package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// Branch is a named FeatureUnion member.
type Branch struct {
	Name      string
	Component interface{}
}

// NamedBranch is a convenience constructor for Branch.
func NamedBranch(name string, component interface{}) Branch {
	return Branch{Name: name, Component: component}
}

// FeatureUnion applies several transformers to the same input and
// concatenates their outputs column-wise, in declaration order.
//
// Given branches [identity, sqrt, square] over an n x c input, the output is
// n x 3c with column blocks [X, sqrt(X), X^2]. Branches may be plain
// transformers or all-transformer pipelines; branches run concurrently
// during Transform.
type FeatureUnion struct {
	branches []Branch
	fitted   bool
}

// NewFeatureUnion creates a FeatureUnion from named branches. Branch names
// follow the same rules as pipeline step names.
func NewFeatureUnion(branches ...Branch) (*FeatureUnion, error) {
	if len(branches) == 0 {
		return nil, errors.NewValidationError("branches", "feature union needs at least one branch", nil)
	}

	seen := make(map[string]struct{}, len(branches))
	for i, branch := range branches {
		if branch.Name == "" {
			return nil, errors.NewValidationError("branches", fmt.Sprintf("branch %d has an empty name", i), nil)
		}
		if strings.Contains(branch.Name, "__") {
			return nil, errors.NewValidationError("branches", "branch names must not contain \"__\"", branch.Name)
		}
		if _, dup := seen[branch.Name]; dup {
			return nil, errors.NewValidationError("branches", "duplicate branch name", branch.Name)
		}
		seen[branch.Name] = struct{}{}

		if branch.Component == nil {
			return nil, errors.NewValidationError("branches", "branch component must not be nil", branch.Name)
		}
		if _, ok := branch.Component.(transformCapable); !ok {
			return nil, errors.NewValidationError("branches", "branch cannot transform data", branch.Name)
		}
		if !canFit(branch.Component) {
			return nil, errors.NewValidationError("branches", "branch cannot be fitted", branch.Name)
		}
	}

	return &FeatureUnion{branches: branches}, nil
}

// Branches returns the union's branches in order.
func (u *FeatureUnion) Branches() []Branch {
	out := make([]Branch, len(u.branches))
	copy(out, u.branches)
	return out
}

// Fit fits every branch on the same X. y is forwarded to supervised
// branches and may be nil.
func (u *FeatureUnion) Fit(X, y mat.Matrix) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, branch := range u.branches {
		wg.Add(1)
		go func(b Branch) {
			defer wg.Done()
			err := errors.SafeExecute("FeatureUnion.Fit("+b.Name+")", func() error {
				return fitComponent(b.Name, b.Component, X, y)
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, errors.Wrapf(err, "feature union branch %q", b.Name))
				mu.Unlock()
			}
		}(branch)
	}
	wg.Wait()

	if len(errs) > 0 {
		return errs[0]
	}
	u.fitted = true
	return nil
}

// Transform runs every branch on X concurrently and concatenates the branch
// outputs column-wise, preserving branch order.
func (u *FeatureUnion) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !u.fitted {
		return nil, errors.NewNotFittedError("FeatureUnion", "Transform")
	}

	n, _ := X.Dims()
	outputs := make([]mat.Matrix, len(u.branches))
	errs := make([]error, len(u.branches))

	var wg sync.WaitGroup
	for i, branch := range u.branches {
		wg.Add(1)
		go func(i int, b Branch) {
			defer wg.Done()
			errs[i] = errors.SafeExecute("FeatureUnion.Transform("+b.Name+")", func() error {
				out, err := b.Component.(transformCapable).Transform(X)
				if err != nil {
					return err
				}
				outputs[i] = out
				return nil
			})
		}(i, branch)
	}
	wg.Wait()

	totalCols := 0
	for i, out := range outputs {
		if errs[i] != nil {
			return nil, errors.Wrapf(errs[i], "feature union branch %q", u.branches[i].Name)
		}
		br, bc := out.Dims()
		if br != n {
			return nil, errors.NewDimensionError("FeatureUnion.Transform("+u.branches[i].Name+")", n, br, 0)
		}
		totalCols += bc
	}

	result := mat.NewDense(n, totalCols, nil)
	offset := 0
	for _, out := range outputs {
		_, bc := out.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < bc; j++ {
				result.Set(i, offset+j, out.At(i, j))
			}
		}
		offset += bc
	}

	return result, nil
}

// FitTransform fits every branch and transforms the same X.
func (u *FeatureUnion) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := u.Fit(X, y); err != nil {
		return nil, err
	}
	return u.Transform(X)
}

// GetParams returns branch hyperparameters flattened with the
// "branch__param" naming convention.
func (u *FeatureUnion) GetParams() map[string]interface{} {
	out := make(map[string]interface{})
	for _, branch := range u.branches {
		if getter, ok := branch.Component.(model.ParameterGetter); ok {
			for k, v := range getter.GetParams() {
				out[branch.Name+"__"+k] = v
			}
		}
	}
	return out
}

// SetParams routes "branch__param" keys to the named branches and resets the
// fitted state.
func (u *FeatureUnion) SetParams(params map[string]interface{}) error {
	grouped := make(map[string]map[string]interface{})
	for key, value := range params {
		name, rest, ok := strings.Cut(key, "__")
		if !ok {
			return errors.NewValidationError(key, "feature union parameters use the \"branch__param\" form", value)
		}
		found := false
		for _, branch := range u.branches {
			if branch.Name == name {
				found = true
				break
			}
		}
		if !found {
			return errors.NewValidationError(key, "no feature union branch named "+name, value)
		}
		if grouped[name] == nil {
			grouped[name] = make(map[string]interface{})
		}
		grouped[name][rest] = value
	}

	for name, branchParams := range grouped {
		for _, branch := range u.branches {
			if branch.Name != name {
				continue
			}
			setter, ok := branch.Component.(model.ParameterSetter)
			if !ok {
				return errors.NewValueError("FeatureUnion.SetParams",
					fmt.Sprintf("branch %q does not accept parameters", name))
			}
			if err := setter.SetParams(branchParams); err != nil {
				return errors.Wrapf(err, "feature union branch %q", name)
			}
		}
	}

	u.fitted = false
	return nil
}

// Clone returns an unfitted copy of the union with every branch cloned.
func (u *FeatureUnion) Clone() *FeatureUnion {
	cloned := make([]Branch, len(u.branches))
	for i, branch := range u.branches {
		cloned[i] = Branch{Name: branch.Name, Component: cloneComponent(branch.Component)}
	}
	return &FeatureUnion{branches: cloned}
}

// String returns a readable representation of the union.
func (u *FeatureUnion) String() string {
	names := make([]string, len(u.branches))
	for i, branch := range u.branches {
		names[i] = branch.Name
	}
	return fmt.Sprintf("FeatureUnion(branches=[%s])", strings.Join(names, ", "))
}
