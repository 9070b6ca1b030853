package dataprocessing

import (
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN values of xs.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Median ignores NaN; even counts average the middle pair. NaN when empty.
func Median(xs []float64) float64 {
	vals := present(xs)
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

// Mean ignores NaN. NaN when empty.
func Mean(xs []float64) float64 {
	vals := present(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// MostFrequentFloat is the numeric mode ignoring NaN; ties go to the smallest value.
func MostFrequentFloat(xs []float64) float64 {
	vals := present(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mode, best := vals[0], 0
	for i := 0; i < len(vals); {
		j := i
		for j < len(vals) && vals[j] == vals[i] {
			j++
		}
		if j-i > best {
			mode, best = vals[i], j-i
		}
		i = j
	}
	return mode
}

// MostFrequent is the string mode ignoring blanks; ties go to the
// lexicographically smallest value. Returns "" when nothing is present.
func MostFrequent(xs []string) string {
	counts := make(map[string]int)
	for _, x := range xs {
		if strings.TrimSpace(x) == "" {
			continue
		}
		counts[x]++
	}
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// Quantile returns the q-quantile of xs (NaN ignored) by linear
// interpolation at position q*(n-1) between order statistics, the numpy
// "linear" definition. stat.Quantile with stat.LinInterp interpolates at
// q*n-1 and clamps everything below 1/n to the minimum.
func Quantile(xs []float64, q float64) float64 {
	vals := present(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	if len(vals) == 1 {
		return vals[0]
	}
	pos := q * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return vals[lo] + (vals[hi]-vals[lo])*frac
}

// SumPresent sums xs ignoring NaN.
func SumPresent(xs []float64) float64 {
	return floats.Sum(present(xs))
}

// MissingMask marks missing cells: NaN for numeric series, NA or blank
// strings otherwise.
func MissingMask(s series.Series) []bool {
	mask := make([]bool, s.Len())
	if IsNumeric(s) {
		vals := s.Float()
		for i := range mask {
			mask[i] = s.Elem(i).IsNA() || math.IsNaN(vals[i])
		}
		return mask
	}
	for i := range mask {
		e := s.Elem(i)
		mask[i] = e.IsNA() || strings.TrimSpace(e.String()) == ""
	}
	return mask
}

// NullFraction is the share of missing cells in s (0 for an empty series).
func NullFraction(s series.Series) float64 {
	if s.Len() == 0 {
		return 0
	}
	n := 0
	for _, m := range MissingMask(s) {
		if m {
			n++
		}
	}
	return float64(n) / float64(s.Len())
}
