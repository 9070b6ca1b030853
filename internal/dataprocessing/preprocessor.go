package dataprocessing

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// PreprocessorOptions configure a ColumnPreprocessor.
type PreprocessorOptions struct {
	NumericStrategy     ImputeStrategy
	CategoricalStrategy ImputeStrategy
	NumericFill         float64
	CategoricalFill     string
	Scale               bool
}

// DefaultPreprocessorOptions imputes numerics by median, categoricals by
// mode, and scales numerics.
func DefaultPreprocessorOptions() PreprocessorOptions {
	return PreprocessorOptions{
		NumericStrategy:     StrategyMedian,
		CategoricalStrategy: StrategyMostFrequent,
		CategoricalFill:     DefaultCategoricalFill,
		Scale:               true,
	}
}

// ColumnPreprocessor routes numeric columns through impute+scale and
// categorical columns through impute+one-hot, then concatenates the result
// numeric-first.
type ColumnPreprocessor struct {
	NumericColumns     []string
	CategoricalColumns []string
	Options            PreprocessorOptions

	numImputer *NumericImputer
	scaler     *StandardScaler
	catImputer *CategoricalImputer
	encoder    *OneHotEncoder
	fitted     bool
}

// NewColumnPreprocessor validates options for the given column split.
func NewColumnPreprocessor(numeric, categorical []string, opts PreprocessorOptions) (*ColumnPreprocessor, error) {
	if len(numeric)+len(categorical) == 0 {
		return nil, fmt.Errorf("preprocessor needs at least one column")
	}

	numImp, err := NewNumericImputer(opts.NumericStrategy, opts.NumericFill)
	if err != nil {
		return nil, err
	}
	catImp, err := NewCategoricalImputer(opts.CategoricalStrategy, opts.CategoricalFill)
	if err != nil {
		return nil, err
	}

	p := &ColumnPreprocessor{
		NumericColumns:     append([]string(nil), numeric...),
		CategoricalColumns: append([]string(nil), categorical...),
		Options:            opts,
		numImputer:         numImp,
		catImputer:         catImp,
		encoder:            &OneHotEncoder{},
	}
	if opts.Scale {
		p.scaler = &StandardScaler{}
	}
	return p, nil
}

// BuildPreprocessor splits X by column type: Float/Int are numeric,
// everything else is categorical.
func BuildPreprocessor(X dataframe.DataFrame, opts PreprocessorOptions) (*ColumnPreprocessor, error) {
	var numeric, categorical []string
	for _, name := range X.Names() {
		if IsNumeric(X.Col(name)) {
			numeric = append(numeric, name)
		} else {
			categorical = append(categorical, name)
		}
	}
	return NewColumnPreprocessor(numeric, categorical, opts)
}

func (p *ColumnPreprocessor) extract(X dataframe.DataFrame) ([][]float64, [][]string, error) {
	if err := RequireColumns(X, append(append([]string(nil), p.NumericColumns...), p.CategoricalColumns...)...); err != nil {
		return nil, nil, err
	}
	num := make([][]float64, len(p.NumericColumns))
	for j, c := range p.NumericColumns {
		num[j] = FloatValues(X, c)
	}
	cat := make([][]string, len(p.CategoricalColumns))
	for j, c := range p.CategoricalColumns {
		cat[j] = StringValues(X, c)
	}
	return num, cat, nil
}

// Fit learns imputation statistics, scaling and categories from X.
func (p *ColumnPreprocessor) Fit(X dataframe.DataFrame) error {
	num, cat, err := p.extract(X)
	if err != nil {
		return err
	}

	if err := p.numImputer.Fit(num); err != nil {
		return err
	}
	if p.scaler != nil {
		filled, err := p.numImputer.Transform(num)
		if err != nil {
			return err
		}
		if err := p.scaler.Fit(filled); err != nil {
			return err
		}
	}

	if err := p.catImputer.Fit(cat); err != nil {
		return err
	}
	filledCat, err := p.catImputer.Transform(cat)
	if err != nil {
		return err
	}
	if err := p.encoder.Fit(filledCat); err != nil {
		return err
	}

	p.fitted = true
	return nil
}

// Transform applies the fitted pipeline. The result has one row per input
// row and len(FeatureNames()) columns, with no NaN.
func (p *ColumnPreprocessor) Transform(X dataframe.DataFrame) (*mat.Dense, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	num, cat, err := p.extract(X)
	if err != nil {
		return nil, err
	}

	numOut, err := p.numImputer.Transform(num)
	if err != nil {
		return nil, err
	}
	if p.scaler != nil {
		if numOut, err = p.scaler.Transform(numOut); err != nil {
			return nil, err
		}
	}

	filledCat, err := p.catImputer.Transform(cat)
	if err != nil {
		return nil, err
	}
	catOut, err := p.encoder.Transform(filledCat)
	if err != nil {
		return nil, err
	}

	cols := append(numOut, catOut...)
	rows := X.Nrow()
	if rows == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("cannot build a %dx%d feature matrix", rows, len(cols))
	}

	m := mat.NewDense(rows, len(cols), nil)
	for j, col := range cols {
		for i, v := range col {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("feature %d row %d is NaN after preprocessing", j, i)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// FitTransform is Fit followed by Transform on the same frame.
func (p *ColumnPreprocessor) FitTransform(X dataframe.DataFrame) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// Fitted reports whether Fit has completed.
func (p *ColumnPreprocessor) Fitted() bool {
	return p.fitted
}

// FeatureNames lists output columns: numeric names, then one-hot names.
func (p *ColumnPreprocessor) FeatureNames() []string {
	names := append([]string(nil), p.NumericColumns...)
	return append(names, p.encoder.FeatureNames(p.CategoricalColumns)...)
}
