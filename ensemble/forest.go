// Package ensemble implements ensemble models built from decision trees.
package ensemble

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/core/parallel"
	"github.com/harukimoto/pipelearn/pkg/errors"
	mllog "github.com/harukimoto/pipelearn/pkg/log"
	"github.com/harukimoto/pipelearn/tree"
)

// RandomForestClassifier is a bootstrap-aggregated ensemble of decision
// trees with random feature subsampling at each split.
//
// Trees are trained concurrently. Each tree derives its seed from
// RandomState and its index, so a fixed RandomState makes training
// deterministic regardless of scheduling.
type RandomForestClassifier struct {
	state *model.StateManager

	// NEstimators is the number of trees (default 100).
	NEstimators int

	// Criterion selects the split impurity measure: "gini" or "entropy".
	Criterion string

	// MaxDepth limits tree depth. 0 means no limit.
	MaxDepth int

	// MinSamplesSplit is the minimum number of samples to attempt a split.
	MinSamplesSplit int

	// MinSamplesLeaf is the minimum number of samples required in each leaf.
	MinSamplesLeaf int

	// MaxFeatures is the number of features sampled per split.
	// 0 means sqrt(n_features).
	MaxFeatures int

	// Bootstrap controls whether trees train on bootstrap samples.
	Bootstrap bool

	// RandomState seeds bootstrap sampling and feature subsampling.
	RandomState int64

	trees   []*tree.DecisionTreeClassifier
	classes []int
}

// ForestOption is a functional configuration for RandomForestClassifier.
type ForestOption func(*RandomForestClassifier)

func WithNEstimators(n int) ForestOption {
	return func(f *RandomForestClassifier) { f.NEstimators = n }
}
func WithCriterion(c string) ForestOption {
	return func(f *RandomForestClassifier) { f.Criterion = c }
}
func WithMaxDepth(d int) ForestOption {
	return func(f *RandomForestClassifier) { f.MaxDepth = d }
}
func WithMinSamplesSplit(n int) ForestOption {
	return func(f *RandomForestClassifier) { f.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) ForestOption {
	return func(f *RandomForestClassifier) { f.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) ForestOption {
	return func(f *RandomForestClassifier) { f.MaxFeatures = k }
}
func WithBootstrap(b bool) ForestOption {
	return func(f *RandomForestClassifier) { f.Bootstrap = b }
}
func WithRandomState(seed int64) ForestOption {
	return func(f *RandomForestClassifier) { f.RandomState = seed }
}

// NewRandomForestClassifier returns a forest with sensible defaults.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	f := &RandomForestClassifier{
		state:           model.NewStateManager(),
		NEstimators:     100,
		Criterion:       tree.CriterionGini,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fit trains the forest on X (n_samples x n_features) and integer labels y
// (n_samples x 1).
func (f *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if f.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be a positive integer", f.NEstimators)
	}

	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	labels, err := tree.LabelsFromMatrix(y, n, "RandomForestClassifier.Fit")
	if err != nil {
		return err
	}
	f.classes = uniqueSorted(labels)

	maxFeatures := f.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = int(math.Sqrt(float64(p)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	dense := mat.DenseCopyOf(X)
	f.trees = make([]*tree.DecisionTreeClassifier, f.NEstimators)
	errs := make([]error, f.NEstimators)

	parallel.Parallelize(f.NEstimators, func(start, end int) {
		for i := start; i < end; i++ {
			seed := f.RandomState + int64(i)

			sampleX := dense
			sampleY := y
			if f.Bootstrap {
				rnd := rand.New(rand.NewSource(seed))
				sampleX, sampleY = bootstrapSample(dense, labels, rnd)
			}

			t := tree.NewDecisionTreeClassifier(
				tree.WithCriterion(f.Criterion),
				tree.WithMaxDepth(f.MaxDepth),
				tree.WithMinSamplesSplit(f.MinSamplesSplit),
				tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
				tree.WithMaxFeatures(maxFeatures),
				tree.WithRandomState(seed),
			)
			if err := t.Fit(sampleX, sampleY); err != nil {
				errs[i] = errors.Wrapf(err, "tree %d", i)
				continue
			}
			f.trees[i] = t
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	slog.Debug("random forest fitted",
		slog.String(mllog.ModelNameKey, "RandomForestClassifier"),
		slog.String(mllog.OperationKey, "fit"),
		slog.Int(mllog.SamplesKey, n),
		slog.Int(mllog.FeaturesKey, p),
		slog.Int("n_estimators", f.NEstimators),
	)

	f.state.SetDimensions(p, n)
	f.state.SetFitted()
	return nil
}

// bootstrapSample draws n rows with replacement from X and labels.
func bootstrapSample(X *mat.Dense, labels []int, rnd *rand.Rand) (*mat.Dense, *mat.Dense) {
	n, p := X.Dims()
	sampleX := mat.NewDense(n, p, nil)
	sampleY := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		src := rnd.Intn(n)
		sampleX.SetRow(i, X.RawRowView(src))
		sampleY.Set(i, 0, float64(labels[src]))
	}
	return sampleX, sampleY
}

// PredictProba returns class probability estimates averaged over all trees,
// one column per class in Classes order.
func (f *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !f.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}
	nFeatures, _ := f.state.GetDimensions()
	n, p := X.Dims()
	if p != nFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", nFeatures, p, 1)
	}

	classCol := make(map[int]int, len(f.classes))
	for k, c := range f.classes {
		classCol[c] = k
	}

	sum := mat.NewDense(n, len(f.classes), nil)
	for _, t := range f.trees {
		probas, err := t.PredictProba(X)
		if err != nil {
			return nil, err
		}
		// Bootstrap samples can miss classes, so tree columns are realigned
		// to the forest's class order.
		treeClasses := t.Classes()
		for i := 0; i < n; i++ {
			for k, c := range treeClasses {
				col := classCol[c]
				sum.Set(i, col, sum.At(i, col)+probas.At(i, k))
			}
		}
	}

	sum.Scale(1/float64(len(f.trees)), sum)
	return sum, nil
}

// Predict returns the class with the highest averaged probability for each
// row of X.
func (f *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := probas.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		bestK := 0
		for k := 1; k < len(f.classes); k++ {
			if probas.At(i, k) > probas.At(i, bestK) {
				bestK = k
			}
		}
		out.Set(i, 0, float64(f.classes[bestK]))
	}
	return out, nil
}

// Classes returns the class labels seen during fitting, ascending.
func (f *RandomForestClassifier) Classes() []int {
	out := make([]int, len(f.classes))
	copy(out, f.classes)
	return out
}

// Score returns the accuracy of the forest on labeled data.
func (f *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := y.Dims()
	np, _ := pred.Dims()
	if n != np {
		return 0, errors.NewDimensionError("RandomForestClassifier.Score", n, np, 0)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if y.At(i, 0) == pred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// GetParams returns the forest's hyperparameters.
func (f *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.NEstimators,
		"criterion":         f.Criterion,
		"max_depth":         f.MaxDepth,
		"min_samples_split": f.MinSamplesSplit,
		"min_samples_leaf":  f.MinSamplesLeaf,
		"max_features":      f.MaxFeatures,
		"bootstrap":         f.Bootstrap,
		"random_state":      f.RandomState,
	}
}

// SetParams sets hyperparameters and resets the fitted state.
func (f *RandomForestClassifier) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "n_estimators":
			n, ok := toInt(v)
			if !ok || n < 1 {
				return errors.NewValidationError(k, "must be a positive integer", v)
			}
			f.NEstimators = n
		case "criterion":
			s, ok := v.(string)
			if !ok || (s != tree.CriterionGini && s != tree.CriterionEntropy) {
				return errors.NewValidationError(k, "must be \"gini\" or \"entropy\"", v)
			}
			f.Criterion = s
		case "max_depth":
			n, ok := toInt(v)
			if !ok || n < 0 {
				return errors.NewValidationError(k, "must be a non-negative integer", v)
			}
			f.MaxDepth = n
		case "min_samples_split":
			n, ok := toInt(v)
			if !ok || n < 2 {
				return errors.NewValidationError(k, "must be an integer >= 2", v)
			}
			f.MinSamplesSplit = n
		case "min_samples_leaf":
			n, ok := toInt(v)
			if !ok || n < 1 {
				return errors.NewValidationError(k, "must be a positive integer", v)
			}
			f.MinSamplesLeaf = n
		case "max_features":
			n, ok := toInt(v)
			if !ok || n < 0 {
				return errors.NewValidationError(k, "must be a non-negative integer", v)
			}
			f.MaxFeatures = n
		case "bootstrap":
			b, ok := v.(bool)
			if !ok {
				return errors.NewValidationError(k, "must be a bool", v)
			}
			f.Bootstrap = b
		case "random_state":
			n, ok := toInt(v)
			if !ok {
				return errors.NewValidationError(k, "must be an integer", v)
			}
			f.RandomState = int64(n)
		default:
			return errors.NewValidationError(k, "unknown parameter for RandomForestClassifier", v)
		}
	}
	f.state.Reset()
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (f *RandomForestClassifier) Clone() model.TunableEstimator {
	return &RandomForestClassifier{
		state:           model.NewStateManager(),
		NEstimators:     f.NEstimators,
		Criterion:       f.Criterion,
		MaxDepth:        f.MaxDepth,
		MinSamplesSplit: f.MinSamplesSplit,
		MinSamplesLeaf:  f.MinSamplesLeaf,
		MaxFeatures:     f.MaxFeatures,
		Bootstrap:       f.Bootstrap,
		RandomState:     f.RandomState,
	}
}

// IsFitted reports whether the forest has been trained.
func (f *RandomForestClassifier) IsFitted() bool {
	return f.state.IsFitted()
}

// String returns a readable representation of the forest.
func (f *RandomForestClassifier) String() string {
	return fmt.Sprintf("RandomForestClassifier(n_estimators=%d, criterion=%q, max_depth=%d, random_state=%d)",
		f.NEstimators, f.Criterion, f.MaxDepth, f.RandomState)
}

func uniqueSorted(labels []int) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0, 4)
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}
