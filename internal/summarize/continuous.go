package summarize

import (
	"context"
	"math"

	"github.com/cohortware/fedsum/internal/expr"
	"github.com/cohortware/fedsum/internal/stats"
	"github.com/cohortware/fedsum/pkg/opal"
	"github.com/cohortware/fedsum/pkg/types"
)

// percentile labels the remote quantile aggregate reports, in output order.
var percentileLabels = []string{"5%", "10%", "25%", "50%", "75%", "90%", "95%"}

// quantilesFromMap converts the remote aggregate's labeled map into the
// fixed percentile set.
func quantilesFromMap(m map[string]float64) types.Quantiles {
	return types.Quantiles{
		P5:  m["5%"],
		P10: m["10%"],
		P25: m["25%"],
		P50: m["50%"],
		P75: m["75%"],
		P90: m["90%"],
		P95: m["95%"],
	}
}

// continuousSummary builds the per-cohort and pooled descriptive rows for
// one continuous variable. Each contributing cohort answers a descriptive
// aggregate and a quantile aggregate; pooling combines the returned
// cohort-level moments client-side.
func (e *Engine) continuousSummary(ctx context.Context, frames []cohortFrame, variable string) ([]types.ContinuousRow, error) {
	var rows []types.ContinuousRow

	moments := make([]stats.CohortMoments, 0, len(frames))
	quantilesByCohort := make([]map[string]float64, 0, len(frames))
	weights := make([]int64, 0, len(frames))
	var pooledMissing, pooledTotal int64

	for _, f := range frames {
		var desc opal.Descriptive
		if err := f.client.Aggregate(ctx, expr.Descriptive(f.frame, variable), &desc); err != nil {
			return nil, err
		}
		var qm opal.QuantileMean
		if err := f.client.Aggregate(ctx, expr.QuantileMean(f.frame, variable), &qm); err != nil {
			return nil, err
		}

		rows = append(rows, types.ContinuousRow{
			Variable:    variable,
			Cohort:      f.client.Name(),
			Mean:        desc.Mean,
			StdDev:      math.Sqrt(desc.Variance),
			Quantiles:   quantilesFromMap(qm.Quantiles),
			CohortN:     desc.NTotal,
			ValidN:      desc.NValid,
			MissingN:    desc.NMissing,
			PercMissing: stats.Percent(desc.NMissing, desc.NTotal),
		})

		moments = append(moments, stats.CohortMoments{
			Mean:     desc.Mean,
			Variance: desc.Variance,
			NValid:   desc.NValid,
		})
		quantilesByCohort = append(quantilesByCohort, qm.Quantiles)
		weights = append(weights, desc.NValid)
		pooledMissing += desc.NMissing
		pooledTotal += desc.NTotal
	}

	if len(frames) > 1 {
		pooledMean, pooledN := stats.PooledMean(moments)

		pooledQuantiles := map[string]float64{}
		for _, label := range percentileLabels {
			values := make([]float64, len(quantilesByCohort))
			for i, q := range quantilesByCohort {
				values[i] = q[label]
			}
			pooledQuantiles[label] = stats.WeightedQuantile(values, weights)
		}

		rows = append(rows, types.ContinuousRow{
			Variable:    variable,
			Cohort:      types.CombinedCohort,
			Mean:        pooledMean,
			StdDev:      stats.PooledStdDev(moments),
			Quantiles:   quantilesFromMap(pooledQuantiles),
			CohortN:     pooledTotal,
			ValidN:      pooledN,
			MissingN:    pooledMissing,
			PercMissing: stats.Percent(pooledMissing, pooledTotal),
		})
	}

	return rows, nil
}
