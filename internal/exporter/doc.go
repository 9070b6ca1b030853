// Package exporter writes preprocessing artifacts.
//
// CSVWriter writes the feature table, the target column and the fitted
// feature matrix of a run (WriteDataset). XLSXWriter writes a summary
// workbook with one sheet per section of the run report.
package exporter
