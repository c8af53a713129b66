// Package dataset loads the bundled example datasets.
package dataset

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/harukimoto/pipelearn/pkg/errors"
	"github.com/harukimoto/pipelearn/preprocessing"
)

// Table is a loaded dataset: a numeric feature matrix with the label column
// split off, plus the metadata needed to treat categorical columns
// correctly downstream.
type Table struct {
	// X is the n_samples x n_features feature matrix. Missing values are
	// NaN; categorical columns hold integer codes.
	X *mat.Dense

	// Y holds the integer class labels, one per sample.
	Y []int

	// FeatureNames names the columns of X, in order.
	FeatureNames []string

	// CategoricalIdx lists the column indices of X that hold categorical
	// codes rather than continuous values.
	CategoricalIdx []int

	// Categories maps a categorical feature name to its code vocabulary,
	// indexed by code.
	Categories map[string][]string
}

// Labels returns Y as an n x 1 matrix, the label shape estimators expect.
func (t *Table) Labels() *mat.Dense {
	out := mat.NewDense(len(t.Y), 1, nil)
	for i, y := range t.Y {
		out.Set(i, 0, float64(y))
	}
	return out
}

// NumSamples returns the number of rows in the table.
func (t *Table) NumSamples() int {
	n, _ := t.X.Dims()
	return n
}

// titanicFeatures is the fixed feature order of the loaded matrix,
// independent of the column order in the CSV file.
var titanicFeatures = []string{"Pclass", "Sex", "Age", "SibSp", "Parch", "Fare", "Embarked"}

// titanicCategorical marks which of titanicFeatures are label-encoded.
var titanicCategorical = map[string]bool{"Sex": true, "Embarked": true}

const titanicLabel = "Survived"

// LoadTitanic reads a Titanic-style CSV file into a Table.
//
// The file must carry a header row including Survived and the seven feature
// columns Pclass, Sex, Age, SibSp, Parch, Fare and Embarked; extra columns
// such as Name or Ticket are ignored and column order does not matter.
// Empty cells become NaN. Sex and Embarked are label-encoded to integer
// codes, with the vocabulary recorded in Categories.
func LoadTitanic(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %q", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %q", path)
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("LoadTitanic", "no data rows", errors.ErrEmptyData)
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	if _, ok := col[titanicLabel]; !ok {
		return nil, errors.NewValueError("LoadTitanic", "missing required column Survived")
	}
	for _, name := range titanicFeatures {
		if _, ok := col[name]; !ok {
			return nil, errors.NewValueError("LoadTitanic", "missing required column "+name)
		}
	}

	rows := records[1:]
	n := len(rows)

	// Categorical columns are label-encoded over the raw strings first,
	// then merged into the numeric matrix. Empty cells stay missing (NaN)
	// instead of becoming a category of their own.
	codes := make(map[string][]float64, len(titanicCategorical))
	categories := make(map[string][]string, len(titanicCategorical))
	for name := range titanicCategorical {
		enc := preprocessing.NewLabelEncoder()
		vals := make([]float64, n)
		for i, row := range rows {
			raw := strings.TrimSpace(row[col[name]])
			if raw == "" {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = float64(enc.FitTransform([]string{raw})[0])
		}
		codes[name] = vals
		categories[name] = enc.Classes
	}

	X := mat.NewDense(n, len(titanicFeatures), nil)
	y := make([]int, n)
	for i, row := range rows {
		label, err := parseIntCell(row[col[titanicLabel]])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: column Survived", i+1)
		}
		y[i] = label

		for j, name := range titanicFeatures {
			if titanicCategorical[name] {
				X.Set(i, j, codes[name][i])
				continue
			}
			v, err := parseFloatCell(row[col[name]])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: column %s", i+1, name)
			}
			X.Set(i, j, v)
		}
	}

	var catIdx []int
	for j, name := range titanicFeatures {
		if titanicCategorical[name] {
			catIdx = append(catIdx, j)
		}
	}

	return &Table{
		X:              X,
		Y:              y,
		FeatureNames:   append([]string(nil), titanicFeatures...),
		CategoricalIdx: catIdx,
		Categories:     categories,
	}, nil
}

// parseFloatCell parses a numeric cell, mapping the empty cell to NaN.
func parseFloatCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewValueError("LoadTitanic", "non-numeric value "+strconv.Quote(s))
	}
	return v, nil
}

func parseIntCell(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewValueError("LoadTitanic", "non-integer label "+strconv.Quote(s))
	}
	return v, nil
}
