// Package shared groups helpers used across mlprep packages that belong to no
// single domain.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler / NewTestLogger for asserting on structured logs
//	- WriteCSV for building small on-disk fixtures in t.TempDir()
package shared
