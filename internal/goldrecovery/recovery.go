package goldrecovery

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"

	"mlprep/internal/dataprocessing"
)

// DenominatorEpsilon is the |F*(C-T)| below which recovery is undefined.
const DenominatorEpsilon = 1e-9

// Recovery returns 100*C*(F-T) / (F*(C-T)) for feed F, concentrate C and
// tail T grades, or NaN when the denominator is within DenominatorEpsilon
// of zero or any input is NaN.
func Recovery(feed, concentrate, tail float64) float64 {
	den := feed * (concentrate - tail)
	if math.IsNaN(den) || math.Abs(den) < DenominatorEpsilon {
		return math.NaN()
	}
	return 100 * concentrate * (feed - tail) / den
}

// ComputeRecovery applies Recovery element-wise.
func ComputeRecovery(feed, concentrate, tail []float64) ([]float64, error) {
	if len(feed) != len(concentrate) || len(feed) != len(tail) {
		return nil, fmt.Errorf("recovery inputs differ in length: feed=%d concentrate=%d tail=%d",
			len(feed), len(concentrate), len(tail))
	}
	out := make([]float64, len(feed))
	for i := range feed {
		out[i] = Recovery(feed[i], concentrate[i], tail[i])
	}
	return out, nil
}

// RecoveryCheck compares recorded rougher recovery with the formula.
type RecoveryCheck struct {
	MAE      float64 `json:"mae"`
	Compared int     `json:"compared"`
}

// RecoveryMAE recomputes rougher recovery from the rougher grades
// and reports the mean absolute error against the recorded column over rows
// where both are defined.
func RecoveryMAE(df dataframe.DataFrame) (RecoveryCheck, error) {
	inputs := FormulaInputs[RougherRecovery]
	if err := dataprocessing.RequireColumns(df, append(inputs, RougherRecovery)...); err != nil {
		return RecoveryCheck{}, err
	}

	computed, err := ComputeRecovery(
		dataprocessing.FloatValues(df, inputs[0]),
		dataprocessing.FloatValues(df, inputs[1]),
		dataprocessing.FloatValues(df, inputs[2]),
	)
	if err != nil {
		return RecoveryCheck{}, err
	}
	recorded := dataprocessing.FloatValues(df, RougherRecovery)

	var sum float64
	var n int
	for i := range computed {
		if math.IsNaN(computed[i]) || math.IsNaN(recorded[i]) {
			continue
		}
		sum += math.Abs(computed[i] - recorded[i])
		n++
	}
	if n == 0 {
		return RecoveryCheck{MAE: math.NaN()}, nil
	}
	return RecoveryCheck{MAE: sum / float64(n), Compared: n}, nil
}
