package summarize

import (
	"context"
	"sort"

	"github.com/cohortware/fedsum/internal/expr"
	"github.com/cohortware/fedsum/internal/stats"
	"github.com/cohortware/fedsum/pkg/opal"
	"github.com/cohortware/fedsum/pkg/types"
)

// categoricalSummary builds the per-cohort and pooled frequency rows for
// one categorical variable. Each contributing cohort answers one frequency
// aggregate and one missingness aggregate; everything else is local
// reshaping.
func (e *Engine) categoricalSummary(ctx context.Context, frames []cohortFrame, variable string) ([]types.CategoricalRow, error) {
	var rows []types.CategoricalRow

	pooledCounts := map[string]int64{}
	var pooledLevels []string
	var pooledValid, pooledMissing, pooledTotal int64

	for _, f := range frames {
		var freq opal.FreqTable
		if err := f.client.Aggregate(ctx, expr.FreqTable(f.frame, variable), &freq); err != nil {
			return nil, err
		}
		var miss opal.MissingCount
		if err := f.client.Aggregate(ctx, expr.MissingCount(f.frame, variable), &miss); err != nil {
			return nil, err
		}

		validN := miss.NTotal - miss.NMissing

		for i, level := range freq.Levels {
			count := freq.Counts[i]
			rows = append(rows, types.CategoricalRow{
				Variable:    variable,
				Cohort:      f.client.Name(),
				Level:       level,
				Count:       count,
				CohortN:     miss.NTotal,
				ValidN:      validN,
				MissingN:    miss.NMissing,
				PercValid:   stats.Percent(count, validN),
				PercTotal:   stats.Percent(count, miss.NTotal),
				PercMissing: stats.Percent(miss.NMissing, miss.NTotal),
			})

			if _, seen := pooledCounts[level]; !seen {
				pooledLevels = append(pooledLevels, level)
			}
			pooledCounts[level] += count
		}

		pooledValid += validN
		pooledMissing += miss.NMissing
		pooledTotal += miss.NTotal
	}

	// A single contributing cohort would only duplicate its own rows.
	if len(frames) > 1 {
		sort.Strings(pooledLevels)
		for _, level := range pooledLevels {
			count := pooledCounts[level]
			rows = append(rows, types.CategoricalRow{
				Variable:    variable,
				Cohort:      types.CombinedCohort,
				Level:       level,
				Count:       count,
				CohortN:     pooledTotal,
				ValidN:      pooledValid,
				MissingN:    pooledMissing,
				PercValid:   stats.Percent(count, pooledValid),
				PercTotal:   stats.Percent(count, pooledTotal),
				PercMissing: stats.Percent(pooledMissing, pooledTotal),
			})
		}
	}

	return rows, nil
}
