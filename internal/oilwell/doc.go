// Package oilwell prepares per-region well survey data and evaluates the
// economics of developing the most promising wells.
package oilwell
