// Package stats provides the summary statistics shared by the trend and report layers.
package stats

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Status distinguishes measured values from values that could not be measured.
type Status string

const (
	StatusOK               Status = "ok"
	StatusNoData           Status = "no_data"
	StatusInsufficientData Status = "insufficient_data"
)

// Summary holds distribution statistics for one metric.
// Std is the population standard deviation.
type Summary struct {
	Status Status  `json:"status"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summarize computes a Summary over values. The input is not modified.
// An empty input yields StatusInsufficientData with zero fields.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{Status: StatusInsufficientData}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Status: StatusOK,
		Count:  n,
		Mean:   mean,
		Median: Percentile(sorted, 0.5),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Std:    std,
	}
}

// Mean returns the arithmetic mean of values, or false when empty.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

// CoefficientOfVariation returns population std / mean.
// Reports false for fewer than two values or a non-positive mean.
func CoefficientOfVariation(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean <= 0 || math.IsNaN(mean) {
		return 0, false
	}
	return std / mean, true
}

// PercentChange returns (after - before) / before * 100.
// Reports false when before is zero.
func PercentChange(before, after float64) (float64, bool) {
	if before == 0 {
		return 0, false
	}
	return (after - before) / before * 100, true
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	if s.Status != StatusOK {
		return slog.GroupValue(slog.String("status", string(s.Status)))
	}
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("mean", s.Mean),
		slog.Float64("median", s.Median),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("std", s.Std),
	)
}
