// Package metrics implements evaluation metrics for classifiers.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/pkg/errors"
)

// AccuracyScore returns the fraction of matching labels between yTrue and
// yPred, both n x 1 matrices.
func AccuracyScore(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := checkLabelPair("AccuracyScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.At(i, 0) == yPred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix returns the confusion matrix over the sorted union of
// labels seen in yTrue and yPred. Rows are true labels, columns predicted;
// the second return value lists the labels in row/column order.
func ConfusionMatrix(yTrue, yPred mat.Matrix) (*mat.Dense, []int, error) {
	n, err := checkLabelPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, nil, err
	}

	labelSet := make(map[int]struct{})
	trueLabels := make([]int, n)
	predLabels := make([]int, n)
	for i := 0; i < n; i++ {
		t, err := intLabel("ConfusionMatrix", yTrue.At(i, 0))
		if err != nil {
			return nil, nil, err
		}
		p, err := intLabel("ConfusionMatrix", yPred.At(i, 0))
		if err != nil {
			return nil, nil, err
		}
		trueLabels[i] = t
		predLabels[i] = p
		labelSet[t] = struct{}{}
		labelSet[p] = struct{}{}
	}

	labels := sortedKeys(labelSet)
	idx := make(map[int]int, len(labels))
	for k, l := range labels {
		idx[l] = k
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r, c := idx[trueLabels[i]], idx[predLabels[i]]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// PrecisionScore returns precision for the positive class of a binary
// problem: TP / (TP + FP). When nothing is predicted positive the metric is
// undefined; a warning is emitted and 0 is returned.
func PrecisionScore(yTrue, yPred mat.Matrix, posLabel int) (float64, error) {
	tp, fp, _, err := binaryCounts("PrecisionScore", yTrue, yPred, posLabel)
	if err != nil {
		return 0, err
	}
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positives", 0))
		return 0, nil
	}
	return float64(tp) / float64(tp+fp), nil
}

// RecallScore returns recall for the positive class of a binary problem:
// TP / (TP + FN). When no true positives exist the metric is undefined; a
// warning is emitted and 0 is returned.
func RecallScore(yTrue, yPred mat.Matrix, posLabel int) (float64, error) {
	tp, _, fn, err := binaryCounts("RecallScore", yTrue, yPred, posLabel)
	if err != nil {
		return 0, err
	}
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no actual positives", 0))
		return 0, nil
	}
	return float64(tp) / float64(tp+fn), nil
}

// F1Score returns the harmonic mean of precision and recall for the positive
// class. Undefined components propagate as 0 after a warning.
func F1Score(yTrue, yPred mat.Matrix, posLabel int) (float64, error) {
	p, err := PrecisionScore(yTrue, yPred, posLabel)
	if err != nil {
		return 0, err
	}
	r, err := RecallScore(yTrue, yPred, posLabel)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision and recall are both zero", 0))
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

func binaryCounts(op string, yTrue, yPred mat.Matrix, posLabel int) (tp, fp, fn int, err error) {
	n, err := checkLabelPair(op, yTrue, yPred)
	if err != nil {
		return 0, 0, 0, err
	}
	pos := float64(posLabel)
	for i := 0; i < n; i++ {
		t := yTrue.At(i, 0) == pos
		p := yPred.At(i, 0) == pos
		switch {
		case t && p:
			tp++
		case !t && p:
			fp++
		case t && !p:
			fn++
		}
	}
	return tp, fp, fn, nil
}

func checkLabelPair(op string, yTrue, yPred mat.Matrix) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "labels are required")
	}
	n, c := yTrue.Dims()
	np, cp := yPred.Dims()
	if c != 1 || cp != 1 {
		return 0, errors.NewValueError(op, "labels must be column vectors")
	}
	if n == 0 {
		return 0, errors.NewModelError(op, "empty labels", errors.ErrEmptyData)
	}
	if n != np {
		return 0, errors.NewDimensionError(op, n, np, 0)
	}
	return n, nil
}

func intLabel(op string, v float64) (int, error) {
	if v != float64(int(v)) {
		return 0, errors.NewValueError(op, "labels must be integer-valued")
	}
	return int(v), nil
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
