// Package stats combines per-cohort summary statistics into pooled values.
//
// Only disclosure-limited aggregates ever reach the client, so pooling works
// from cohort-level summaries: counts are summed, means are valid-n
// weighted, and variances use the standard pooled-variance combination.
package stats

import "math"

// CohortMoments is one cohort's contribution to a pooled continuous
// summary.
type CohortMoments struct {
	Mean     float64
	Variance float64
	NValid   int64
}

// PooledMean returns the valid-n weighted mean across cohorts and the total
// valid n. Returns (0, 0) when no cohort contributes observations.
func PooledMean(moments []CohortMoments) (float64, int64) {
	var sum float64
	var n int64
	for _, m := range moments {
		sum += m.Mean * float64(m.NValid)
		n += m.NValid
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// PooledVariance combines per-cohort variances and means into the variance
// of the pooled sample:
//
//	s² = (Σ (nᵢ-1)·sᵢ² + Σ nᵢ·(x̄ᵢ-x̄)²) / (N-1)
//
// where x̄ is the pooled mean. Returns 0 when fewer than two observations
// contribute.
func PooledVariance(moments []CohortMoments) float64 {
	mean, n := PooledMean(moments)
	if n < 2 {
		return 0
	}
	var within, between float64
	for _, m := range moments {
		if m.NValid == 0 {
			continue
		}
		within += float64(m.NValid-1) * m.Variance
		d := m.Mean - mean
		between += float64(m.NValid) * d * d
	}
	return (within + between) / float64(n-1)
}

// PooledStdDev is the square root of PooledVariance.
func PooledStdDev(moments []CohortMoments) float64 {
	return math.Sqrt(PooledVariance(moments))
}

// WeightedQuantile combines per-cohort quantile estimates by valid-n
// weighting. True pooled quantiles are not computable from cohort summaries
// alone; the weighted average is the conventional approximation when only
// disclosure-limited statistics are available.
func WeightedQuantile(values []float64, weights []int64) float64 {
	var sum float64
	var n int64
	for i, v := range values {
		sum += v * float64(weights[i])
		n += weights[i]
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Percent returns count as a percentage of denom, or 0 when denom is 0.
func Percent(count, denom int64) float64 {
	if denom == 0 {
		return 0
	}
	return 100 * float64(count) / float64(denom)
}
