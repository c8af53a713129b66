// Package modelselection provides data splitting, cross-validation and
// hyperparameter search over tunable estimators.
package modelselection

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/pkg/errors"
)

// TrainTestSplit shuffles the samples with the given seed and splits them
// into train and test partitions. testSize is the fraction of samples
// assigned to the test partition, in (0, 1).
//
// The same seed always produces the same split.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int64) (XTrain, XTest, yTrain, yTest mat.Matrix, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}
	n, _ := X.Dims()
	if n == 0 {
		return nil, nil, nil, nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if y != nil {
		ny, _ := y.Dims()
		if ny != n {
			return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, ny, 0)
		}
	}

	nTest := int(float64(n) * testSize)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "test size leaves no training samples")
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testIdx := perm[:nTest]
	trainIdx := perm[nTest:]

	XTrain = selectRows(X, trainIdx)
	XTest = selectRows(X, testIdx)
	if y != nil {
		yTrain = selectRows(y, trainIdx)
		yTest = selectRows(y, testIdx)
	}
	return XTrain, XTest, yTrain, yTest, nil
}

// KFold yields k (train, test) index splits over n samples.
//
// When Shuffle is set, indices are permuted with Seed before folding, so a
// fixed Seed gives reproducible folds. Folds are contiguous blocks of the
// (possibly permuted) index sequence; the first n mod k folds get one extra
// sample, matching the usual cross-validation convention.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewKFold returns a KFold with k splits and shuffling enabled.
func NewKFold(k int, seed int64) *KFold {
	return &KFold{NSplits: k, Shuffle: true, Seed: seed}
}

// Split returns the train/test index pairs for n samples. Every sample
// appears in exactly one test fold.
func (kf *KFold) Split(n int) (trainFolds, testFolds [][]int, err error) {
	if kf.NSplits < 2 {
		return nil, nil, errors.NewValidationError("NSplits", "must be at least 2", kf.NSplits)
	}
	if n < kf.NSplits {
		return nil, nil, errors.NewValueError("KFold.Split", "more splits than samples")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		rand.New(rand.NewSource(kf.Seed)).Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	foldSizes := make([]int, kf.NSplits)
	for i := range foldSizes {
		foldSizes[i] = n / kf.NSplits
		if i < n%kf.NSplits {
			foldSizes[i]++
		}
	}

	trainFolds = make([][]int, kf.NSplits)
	testFolds = make([][]int, kf.NSplits)
	start := 0
	for f := 0; f < kf.NSplits; f++ {
		end := start + foldSizes[f]
		test := make([]int, end-start)
		copy(test, indices[start:end])
		train := make([]int, 0, n-len(test))
		train = append(train, indices[:start]...)
		train = append(train, indices[end:]...)
		testFolds[f] = test
		trainFolds[f] = train
		start = end
	}
	return trainFolds, testFolds, nil
}

// StratifiedKFold yields k (train, test) index splits that preserve the
// class proportions of y in every fold: each class's samples are shuffled
// with Seed and dealt round-robin across the folds.
type StratifiedKFold struct {
	NSplits int
	Seed    int64
}

// NewStratifiedKFold returns a StratifiedKFold with k splits.
func NewStratifiedKFold(k int, seed int64) *StratifiedKFold {
	return &StratifiedKFold{NSplits: k, Seed: seed}
}

// Split returns the train/test index pairs for labels y (n x 1, integer
// valued). Every class must have at least NSplits samples.
func (skf *StratifiedKFold) Split(y mat.Matrix) (trainFolds, testFolds [][]int, err error) {
	if skf.NSplits < 2 {
		return nil, nil, errors.NewValidationError("NSplits", "must be at least 2", skf.NSplits)
	}
	if y == nil {
		return nil, nil, errors.NewValueError("StratifiedKFold.Split", "labels are required")
	}
	n, c := y.Dims()
	if c != 1 {
		return nil, nil, errors.NewValueError("StratifiedKFold.Split", "y must be a column vector (n x 1 matrix)")
	}

	byClass := make(map[float64][]int)
	order := make([]float64, 0, 4)
	for i := 0; i < n; i++ {
		label := y.At(i, 0)
		if _, ok := byClass[label]; !ok {
			order = append(order, label)
		}
		byClass[label] = append(byClass[label], i)
	}
	sort.Float64s(order)

	rnd := rand.New(rand.NewSource(skf.Seed))
	testFolds = make([][]int, skf.NSplits)
	for _, label := range order {
		idx := byClass[label]
		if len(idx) < skf.NSplits {
			return nil, nil, errors.NewValueError("StratifiedKFold.Split",
				fmt.Sprintf("class %v has %d samples, fewer than %d splits", label, len(idx), skf.NSplits))
		}
		rnd.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for k, sample := range idx {
			f := k % skf.NSplits
			testFolds[f] = append(testFolds[f], sample)
		}
	}

	trainFolds = make([][]int, skf.NSplits)
	for f := range testFolds {
		sort.Ints(testFolds[f])
		inTest := make(map[int]bool, len(testFolds[f]))
		for _, i := range testFolds[f] {
			inTest[i] = true
		}
		train := make([]int, 0, n-len(testFolds[f]))
		for i := 0; i < n; i++ {
			if !inTest[i] {
				train = append(train, i)
			}
		}
		trainFolds[f] = train
	}
	return trainFolds, testFolds, nil
}

// selectRows materializes the given rows of m, in index order.
func selectRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, src := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(src, j))
		}
	}
	return out
}
