package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"mlprep/internal/dataprocessing"
)

// Artifact file names inside a run directory.
const (
	FeaturesFile = "features.csv"
	TargetFile   = "target.csv"
	MatrixFile   = "matrix.csv"
	SummaryFile  = "summary.xlsx"
	DatasetFile  = "dataset.xlsx"
)

// Dataset is the hand-off of one preprocessing run.
type Dataset struct {
	Features   dataframe.DataFrame
	Target     []float64
	TargetName string

	// Matrix is the fitted feature matrix, when the project builds one.
	Matrix        *mat.Dense
	MatrixColumns []string
}

// Artifact describes one written file.
type Artifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// WriteDataset writes features, target and (if set) the fitted matrix into
// dir, which is resolved like any other relative path.
func (w *CSVWriter) WriteDataset(dir string, ds Dataset) ([]Artifact, error) {
	if ds.Features.Nrow() != len(ds.Target) {
		return nil, fmt.Errorf("features have %d rows but target has %d", ds.Features.Nrow(), len(ds.Target))
	}

	var artifacts []Artifact

	headers, records := frameRecords(ds.Features)
	path := filepath.Join(dir, FeaturesFile)
	written, err := w.WriteTable(path, headers, records)
	if err != nil {
		return nil, fmt.Errorf("write features: %w", err)
	}
	artifacts = append(artifacts, Artifact{Name: FeaturesFile, Path: written, Rows: len(records)})

	targetName := ds.TargetName
	if targetName == "" {
		targetName = "target"
	}
	rows := make([][]string, len(ds.Target))
	for i, v := range ds.Target {
		rows[i] = []string{formatFloat(v)}
	}
	path = filepath.Join(dir, TargetFile)
	written, err = w.WriteTable(path, []string{targetName}, rows)
	if err != nil {
		return nil, fmt.Errorf("write target: %w", err)
	}
	artifacts = append(artifacts, Artifact{Name: TargetFile, Path: written, Rows: len(rows)})

	if ds.Matrix != nil {
		records := matrixRecords(ds.Matrix)
		path = filepath.Join(dir, MatrixFile)
		written, err := w.WriteTable(path, ds.MatrixColumns, records)
		if err != nil {
			return nil, fmt.Errorf("write matrix: %w", err)
		}
		artifacts = append(artifacts, Artifact{Name: MatrixFile, Path: written, Rows: len(records)})
	}

	slog.Info("dataset_exported",
		slog.String("dir", resolveOutputPath(w.paths, dir)),
		slog.Int("artifacts", len(artifacts)),
		slog.Int("rows", len(ds.Target)))
	return artifacts, nil
}

func frameRecords(df dataframe.DataFrame) ([]string, [][]string) {
	names := df.Names()
	cols := make([][]string, len(names))
	for j, name := range names {
		s := df.Col(name)
		switch s.Type() {
		case series.Float:
			vals := dataprocessing.FloatValues(df, name)
			cols[j] = make([]string, len(vals))
			for i, v := range vals {
				cols[j][i] = formatFloat(v)
			}
		case series.Int:
			vals, err := s.Int()
			if err != nil {
				cols[j] = dataprocessing.StringValues(df, name)
				continue
			}
			cols[j] = make([]string, len(vals))
			for i, v := range vals {
				cols[j][i] = formatInt(v)
			}
		default:
			cols[j] = dataprocessing.StringValues(df, name)
		}
	}

	records := make([][]string, df.Nrow())
	for i := range records {
		row := make([]string, len(names))
		for j := range names {
			row[j] = cols[j][i]
		}
		records[i] = row
	}
	return names, records
}

func matrixRecords(m *mat.Dense) [][]string {
	r, c := m.Dims()
	records := make([][]string, r)
	for i := 0; i < r; i++ {
		row := make([]string, c)
		for j := 0; j < c; j++ {
			row[j] = formatFloat(m.At(i, j))
		}
		records[i] = row
	}
	return records
}
