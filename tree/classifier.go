// Package tree implements decision tree models for classification.
package tree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/core/model"
	"github.com/harukimoto/pipelearn/pkg/errors"
)

// Split quality criteria.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// DecisionTreeClassifier is a CART-style classifier over numeric features.
//
// Categorical features are expected to arrive one-hot encoded or as integer
// codes. Missing values (NaN) are tolerated: during training a sample with a
// missing split feature follows the heavier child, and prediction uses the
// same rule.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	// Criterion selects the impurity measure: "gini" (default) or "entropy".
	Criterion string

	// MaxDepth limits tree depth (root depth 0). 0 means no limit.
	MaxDepth int

	// MinSamplesSplit is the minimum number of samples to attempt a split.
	MinSamplesSplit int

	// MinSamplesLeaf is the minimum number of samples required in each leaf.
	MinSamplesLeaf int

	// MaxFeatures is the number of features sampled per split. 0 means all.
	MaxFeatures int

	// MinImpurityDecrease is the minimal impurity decrease to accept a split.
	MinImpurityDecrease float64

	// RandomState seeds the feature subsampling.
	RandomState int64

	root      *node
	classes   []int
	nFeatures int
}

// node is a tree node; leaves carry the class distribution.
type node struct {
	leaf      bool
	feature   int
	threshold float64 // x <= threshold goes left
	left      *node
	right     *node

	n      int
	probas []float64 // aligned with tree classes
}

// Option is a functional configuration for DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxDepth(d int) Option     { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeClassifier) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{
		Criterion:       CriterionGini,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit trains the tree on X (n_samples x n_features) and integer labels y
// (n_samples x 1).
func (t *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	if t.Criterion != CriterionGini && t.Criterion != CriterionEntropy {
		return errors.NewValidationError("criterion", "must be \"gini\" or \"entropy\"", t.Criterion)
	}
	rows, features, err := dims(X, "DecisionTreeClassifier.Fit")
	if err != nil {
		return err
	}
	labels, err := LabelsFromMatrix(y, rows, "DecisionTreeClassifier.Fit")
	if err != nil {
		return err
	}

	data := toRows(X)

	t.classes = uniqueSorted(labels)
	t.nFeatures = features

	classIdx := make(map[int]int, len(t.classes))
	for i, c := range t.classes {
		classIdx[c] = i
	}

	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}

	rnd := rand.New(rand.NewSource(t.RandomState))
	t.root = t.buildNode(data, labels, classIdx, idx, 0, rnd)

	t.SetFitted()
	return nil
}

func (t *DecisionTreeClassifier) impurity(counts []int) float64 {
	if t.Criterion == CriterionEntropy {
		return entropyFromCounts(counts)
	}
	return giniFromCounts(counts)
}

func (t *DecisionTreeClassifier) buildNode(data [][]float64, labels []int, classIdx map[int]int, idx []int, depth int, rnd *rand.Rand) *node {
	counts := make([]int, len(t.classes))
	for _, i := range idx {
		counts[classIdx[labels[i]]]++
	}

	nd := &node{n: len(idx)}
	makeLeaf := func() *node {
		nd.leaf = true
		nd.probas = countsToProbas(counts)
		return nd
	}

	if isPure(counts) || len(idx) < t.MinSamplesSplit {
		return makeLeaf()
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return makeLeaf()
	}

	best := t.findBestSplit(data, labels, classIdx, idx, rnd)
	if best.feature < 0 || best.gain <= t.MinImpurityDecrease {
		return makeLeaf()
	}

	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.left = t.buildNode(data, labels, classIdx, best.leftIdx, depth+1, rnd)
	nd.right = t.buildNode(data, labels, classIdx, best.rightIdx, depth+1, rnd)
	return nd
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

// valueIndex pairs a feature value with the sample index it came from.
type valueIndex struct {
	v float64
	i int
}

func (t *DecisionTreeClassifier) findBestSplit(data [][]float64, labels []int, classIdx map[int]int, idx []int, rnd *rand.Rand) split {
	p := len(data[0])

	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(a, b int) { features[a], features[b] = features[b], features[a] })
		features = features[:t.MaxFeatures]
	}

	parentCounts := make([]int, len(t.classes))
	for _, i := range idx {
		parentCounts[classIdx[labels[i]]]++
	}
	parentImpurity := t.impurity(parentCounts)
	total := float64(len(idx))

	best := split{feature: -1}
	for _, f := range features {
		valid := make([]valueIndex, 0, len(idx))
		missing := make([]int, 0)
		for _, i := range idx {
			v := data[i][f]
			if math.IsNaN(v) {
				missing = append(missing, i)
			} else {
				valid = append(valid, valueIndex{v, i})
			}
		}
		if len(valid) < 2 {
			continue
		}
		sort.Slice(valid, func(a, b int) bool { return valid[a].v < valid[b].v })

		missingCounts := make([]int, len(t.classes))
		for _, i := range missing {
			missingCounts[classIdx[labels[i]]]++
		}

		// Scan thresholds between adjacent distinct values. Class counts are
		// maintained incrementally while moving samples to the left side.
		leftCounts := make([]int, len(t.classes))
		rightCounts := make([]int, len(t.classes))
		for _, vi := range valid {
			rightCounts[classIdx[labels[vi.i]]]++
		}
		nLeft := 0
		nRight := len(valid)

		for s := 0; s < len(valid)-1; s++ {
			ci := classIdx[labels[valid[s].i]]
			leftCounts[ci]++
			rightCounts[ci]--
			nLeft++
			nRight--

			if valid[s].v == valid[s+1].v {
				continue
			}

			// Missing-value samples follow the heavier side.
			missLeft := nLeft >= nRight

			effLeft := nLeft
			effRight := nRight
			if missLeft {
				effLeft += len(missing)
			} else {
				effRight += len(missing)
			}
			if effLeft < t.MinSamplesLeaf || effRight < t.MinSamplesLeaf {
				continue
			}

			impL := t.impurity(withCounts(leftCounts, missingCounts, missLeft))
			impR := t.impurity(withCounts(rightCounts, missingCounts, !missLeft))
			weighted := (float64(effLeft)*impL + float64(effRight)*impR) / total
			gain := parentImpurity - weighted
			if gain <= best.gain {
				continue
			}

			threshold := (valid[s].v + valid[s+1].v) / 2
			leftIdx := make([]int, 0, effLeft)
			rightIdx := make([]int, 0, effRight)
			for k, vi := range valid {
				if k <= s {
					leftIdx = append(leftIdx, vi.i)
				} else {
					rightIdx = append(rightIdx, vi.i)
				}
			}
			if missLeft {
				leftIdx = append(leftIdx, missing...)
			} else {
				rightIdx = append(rightIdx, missing...)
			}

			best = split{
				gain:      gain,
				feature:   f,
				threshold: threshold,
				leftIdx:   leftIdx,
				rightIdx:  rightIdx,
			}
		}
	}
	return best
}

// Predict returns the majority-class label for each row of X.
func (t *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := probas.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		bestK := 0
		for k := 1; k < len(t.classes); k++ {
			if probas.At(i, k) > probas.At(i, bestK) {
				bestK = k
			}
		}
		out.Set(i, 0, float64(t.classes[bestK]))
	}
	return out, nil
}

// PredictProba returns per-class probability estimates, one column per class
// in Classes order.
func (t *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != t.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", t.nFeatures, c, 1)
	}

	out := mat.NewDense(r, len(t.classes), nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		probas := t.predictRow(row)
		for k, p := range probas {
			out.Set(i, k, p)
		}
	}
	return out, nil
}

func (t *DecisionTreeClassifier) predictRow(row []float64) []float64 {
	nd := t.root
	for !nd.leaf {
		v := row[nd.feature]
		if math.IsNaN(v) {
			// Missing value follows the heavier child.
			if nd.left.n >= nd.right.n {
				nd = nd.left
			} else {
				nd = nd.right
			}
			continue
		}
		if v <= nd.threshold {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd.probas
}

// Classes returns the class labels seen during fitting, ascending.
func (t *DecisionTreeClassifier) Classes() []int {
	out := make([]int, len(t.classes))
	copy(out, t.classes)
	return out
}

// Score returns the accuracy of the tree on labeled data.
func (t *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	return accuracy(y, pred)
}

// GetParams returns the tree's hyperparameters.
func (t *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             t.Criterion,
		"max_depth":             t.MaxDepth,
		"min_samples_split":     t.MinSamplesSplit,
		"min_samples_leaf":      t.MinSamplesLeaf,
		"max_features":          t.MaxFeatures,
		"min_impurity_decrease": t.MinImpurityDecrease,
		"random_state":          t.RandomState,
	}
}

// SetParams sets hyperparameters and resets the fitted state.
func (t *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "criterion":
			s, ok := v.(string)
			if !ok || (s != CriterionGini && s != CriterionEntropy) {
				return errors.NewValidationError(k, "must be \"gini\" or \"entropy\"", v)
			}
			t.Criterion = s
		case "max_depth":
			n, ok := toInt(v)
			if !ok || n < 0 {
				return errors.NewValidationError(k, "must be a non-negative integer", v)
			}
			t.MaxDepth = n
		case "min_samples_split":
			n, ok := toInt(v)
			if !ok || n < 2 {
				return errors.NewValidationError(k, "must be an integer >= 2", v)
			}
			t.MinSamplesSplit = n
		case "min_samples_leaf":
			n, ok := toInt(v)
			if !ok || n < 1 {
				return errors.NewValidationError(k, "must be a positive integer", v)
			}
			t.MinSamplesLeaf = n
		case "max_features":
			n, ok := toInt(v)
			if !ok || n < 0 {
				return errors.NewValidationError(k, "must be a non-negative integer", v)
			}
			t.MaxFeatures = n
		case "min_impurity_decrease":
			f, ok := toFloat(v)
			if !ok || f < 0 {
				return errors.NewValidationError(k, "must be a non-negative number", v)
			}
			t.MinImpurityDecrease = f
		case "random_state":
			n, ok := toInt(v)
			if !ok {
				return errors.NewValidationError(k, "must be an integer", v)
			}
			t.RandomState = int64(n)
		default:
			return errors.NewValidationError(k, "unknown parameter for DecisionTreeClassifier", v)
		}
	}
	t.Reset()
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (t *DecisionTreeClassifier) Clone() model.TunableEstimator {
	return &DecisionTreeClassifier{
		Criterion:           t.Criterion,
		MaxDepth:            t.MaxDepth,
		MinSamplesSplit:     t.MinSamplesSplit,
		MinSamplesLeaf:      t.MinSamplesLeaf,
		MaxFeatures:         t.MaxFeatures,
		MinImpurityDecrease: t.MinImpurityDecrease,
		RandomState:         t.RandomState,
	}
}

// String returns a readable representation of the tree.
func (t *DecisionTreeClassifier) String() string {
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%q, max_depth=%d, min_samples_split=%d)",
		t.Criterion, t.MaxDepth, t.MinSamplesSplit)
}
