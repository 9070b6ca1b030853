package services

import (
	"context"
	"math"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"mlprep/internal/dataprocessing"
	"mlprep/pkg/contracts/domain"
)

// projectSpec binds one project's domain functions to the shared step layout.
// A nil clean or features func passes the frame through.
type projectSpec struct {
	info     domain.ProjectInfo
	load     func(path string) (dataframe.DataFrame, error)
	clean    func(ctx context.Context, df dataframe.DataFrame, seed int64, report *runReport) (dataframe.DataFrame, error)
	features func(df dataframe.DataFrame) (dataframe.DataFrame, error)
	split    func(ctx context.Context, df dataframe.DataFrame, seed int64, report *runReport) (splitResult, error)
}

// splitResult is the X/y hand-off produced by the split step.
type splitResult struct {
	X             dataframe.DataFrame
	y             []float64
	targetName    string
	matrix        *mat.Dense
	matrixColumns []string
}

// runReport accumulates what each step changed. It lives in the run
// context under operations.ContextKeyReport.
type runReport struct {
	RowsIn   int
	Cleaning dataprocessing.CleaningReport
	Metrics  map[string]float64
}

func newRunReport() *runReport {
	return &runReport{Metrics: make(map[string]float64)}
}

// summary converts the report for persistence once y is known.
func (r *runReport) summary(res splitResult) *domain.DatasetSummary {
	return &domain.DatasetSummary{
		RowsIn:      r.RowsIn,
		RowsOut:     len(res.y),
		RowsDropped: r.RowsIn - len(res.y),
		Features:    res.X.Names(),
		Target:      res.targetName,
		Metrics:     finiteMetrics(r.Metrics),
	}
}

// finiteMetrics drops NaN and infinite values, which JSON cannot carry.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for name, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[name] = v
	}
	return out
}
