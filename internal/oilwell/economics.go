package oilwell

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"

	"mlprep/internal/dataprocessing"
	"mlprep/internal/seed"
)

var validate = validator.New()

// ComputeProfit is revenue from the predicted volume minus total cost.
func ComputeProfit(predictedUnitsSum, revenuePerUnit, totalCost float64) float64 {
	return predictedUnitsSum*revenuePerUnit - totalCost
}

// Economics describes a development campaign in one region.
type Economics struct {
	Budget         float64 `validate:"gt=0"`
	RevenuePerUnit float64 `validate:"gt=0"`
	WellsSelected  int     `validate:"gt=0"`
	PointsExplored int     `validate:"gtefield=WellsSelected"`
}

// DefaultEconomics: 10 bn budget, 450k per thousand barrels, best 200 of 500
// explored points.
func DefaultEconomics() Economics {
	return Economics{
		Budget:         10e9,
		RevenuePerUnit: 450e3,
		WellsSelected:  200,
		PointsExplored: 500,
	}
}

// Validate checks the campaign parameters.
func (e Economics) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid economics: %w", err)
	}
	return nil
}

// BreakEvenUnits is the total volume needed to recover the budget.
func (e Economics) BreakEvenUnits() float64 {
	return e.Budget / e.RevenuePerUnit
}

// BreakEvenPerWell is BreakEvenUnits spread over the selected wells.
func (e Economics) BreakEvenPerWell() float64 {
	return e.BreakEvenUnits() / float64(e.WellsSelected)
}

// TopNProfit picks the n wells with the highest predictions and returns the
// profit realised by their actual volumes against the full budget.
func TopNProfit(predicted, actual []float64, n int, econ Economics) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("predicted and actual differ in length: %d != %d", len(predicted), len(actual))
	}
	if n <= 0 || n > len(predicted) {
		return 0, fmt.Errorf("cannot select %d wells from %d", n, len(predicted))
	}

	idx := make([]int, len(predicted))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return predicted[idx[a]] > predicted[idx[b]] })

	var units float64
	for _, i := range idx[:n] {
		units += actual[i]
	}
	return ComputeProfit(units, econ.RevenuePerUnit, econ.Budget), nil
}

// ProfitDistribution summarises bootstrapped campaign profit.
type ProfitDistribution struct {
	Mean     float64 `json:"mean"`
	Lower    float64 `json:"lower_2_5"`
	Upper    float64 `json:"upper_97_5"`
	LossRisk float64 `json:"loss_risk"`
	Samples  int     `json:"samples"`
}

// BootstrapProfit repeatedly explores PointsExplored random points (with
// replacement), develops the best WellsSelected of them by prediction and
// records the profit. LossRisk is the share of negative outcomes.
func BootstrapProfit(predicted, actual []float64, econ Economics, samples int, seedValue int64) (ProfitDistribution, error) {
	if err := econ.Validate(); err != nil {
		return ProfitDistribution{}, err
	}
	if samples <= 0 {
		return ProfitDistribution{}, fmt.Errorf("bootstrap samples must be positive, got %d", samples)
	}
	if len(predicted) != len(actual) || len(predicted) == 0 {
		return ProfitDistribution{}, fmt.Errorf("need equally sized non-empty predictions, got %d and %d", len(predicted), len(actual))
	}

	rng := seed.New(seedValue)
	profits := make([]float64, samples)
	pred := make([]float64, econ.PointsExplored)
	act := make([]float64, econ.PointsExplored)
	losses := 0

	for s := 0; s < samples; s++ {
		for k := range pred {
			i := rng.Intn(len(predicted))
			pred[k], act[k] = predicted[i], actual[i]
		}
		p, err := TopNProfit(pred, act, econ.WellsSelected, econ)
		if err != nil {
			return ProfitDistribution{}, err
		}
		profits[s] = p
		if p < 0 {
			losses++
		}
	}

	dist := ProfitDistribution{
		Mean:     dataprocessing.Mean(profits),
		Lower:    dataprocessing.Quantile(profits, 0.025),
		Upper:    dataprocessing.Quantile(profits, 0.975),
		LossRisk: float64(losses) / float64(samples),
		Samples:  samples,
	}
	if math.IsNaN(dist.Mean) {
		return ProfitDistribution{}, fmt.Errorf("bootstrap produced no finite profit")
	}
	return dist, nil
}
