package tree

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/pkg/errors"
)

// dims validates that X is non-empty and returns its shape.
func dims(X mat.Matrix, op string) (rows, cols int, err error) {
	rows, cols = X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	return rows, cols, nil
}

// LabelsFromMatrix converts an n x 1 label matrix to integer class labels.
// Labels must be integer-valued; anything else is a ValueError.
func LabelsFromMatrix(y mat.Matrix, n int, op string) ([]int, error) {
	if y == nil {
		return nil, errors.NewValueError(op, "labels are required")
	}
	r, c := y.Dims()
	if c != 1 {
		return nil, errors.NewValueError(op, "y must be a column vector (n x 1 matrix)")
	}
	if r != n {
		return nil, errors.NewDimensionError(op, n, r, 0)
	}

	labels := make([]int, r)
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) || v != math.Trunc(v) {
			return nil, errors.NewValueError(op, "labels must be integer-valued")
		}
		labels[i] = int(v)
	}
	return labels, nil
}

// toRows copies a matrix into a row-major [][]float64 for fast row access
// during recursive tree construction.
func toRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		out[i] = row
	}
	return out
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

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

// withCounts returns base plus extra when include is set. base is not
// modified.
func withCounts(base, extra []int, include bool) []int {
	if !include {
		return base
	}
	out := make([]int, len(base))
	for i := range base {
		out[i] = base[i] + extra[i]
	}
	return out
}

// accuracy compares two n x 1 label matrices.
func accuracy(yTrue, yPred mat.Matrix) (float64, error) {
	r, c := yTrue.Dims()
	rp, cp := yPred.Dims()
	if r == 0 {
		return 0, errors.NewValueError("accuracy", "empty labels")
	}
	if c != 1 || cp != 1 {
		return 0, errors.NewValueError("accuracy", "labels must be column vectors")
	}
	if r != rp {
		return 0, errors.NewDimensionError("accuracy", r, rp, 0)
	}
	correct := 0
	for i := 0; i < r; i++ {
		if yTrue.At(i, 0) == yPred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// toInt converts the numeric types that reach SetParams through
// map[string]interface{} param grids.
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

// toFloat converts the numeric types that reach SetParams through
// map[string]interface{} param grids.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
