package summarize

import (
	"context"
	"log/slog"
	"time"

	"github.com/cohortware/fedsum/pkg/types"
)

// SummaryStats produces categorical and continuous summary tables for the
// requested variables across cohorts.
//
// The run validates every variable against the remote data dictionaries,
// issues a fixed sequence of aggregate calls per variable per cohort,
// reshapes the disclosure-limited responses into tidy rows, appends pooled
// "combined" rows computed client-side, and removes all temporary remote
// objects before returning. Backend errors, including disclosure-control
// refusals, propagate with cohort context only.
func (e *Engine) SummaryStats(ctx context.Context, req *types.SummaryRequest) (*types.SummaryReport, error) {
	start := time.Now()

	cohorts, err := e.catalogue.Cohorts(req.Cohorts)
	if err != nil {
		return nil, err
	}

	resolved, warnings, err := e.catalogue.Resolve(ctx, cohorts, req.Project, req.Table, req.Variables)
	if err != nil {
		return nil, err
	}

	frames, cleanup, err := e.prepareFrames(ctx, cohorts, req.Project, req.Table)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	report := &types.SummaryReport{
		Categorical: []types.CategoricalRow{},
		Continuous:  []types.ContinuousRow{},
		Warnings:    warnings,
	}

	// Variables are processed in request order; within a variable, cohorts
	// in configured order followed by the pooled row(s).
	for _, name := range req.Variables {
		rv := resolved[name]
		varFrames := framesFor(frames, rv.Cohorts)

		switch rv.Class {
		case types.ClassCategorical:
			rows, err := e.categoricalSummary(ctx, varFrames, name)
			if err != nil {
				return nil, err
			}
			report.Categorical = append(report.Categorical, rows...)
		case types.ClassContinuous:
			rows, err := e.continuousSummary(ctx, varFrames, name)
			if err != nil {
				return nil, err
			}
			report.Continuous = append(report.Continuous, rows...)
		}
	}

	slog.Info("summary stats completed",
		slog.String("table", req.Project+"."+req.Table),
		slog.Int("variables", len(req.Variables)),
		slog.Int("cohorts", len(cohorts)),
		slog.Int("categorical_rows", len(report.Categorical)),
		slog.Int("continuous_rows", len(report.Continuous)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return report, nil
}

// DisclosureReport returns every cohort's disclosure-control settings in
// tidy form.
func (e *Engine) DisclosureReport(ctx context.Context, cohortNames []string) ([]types.CohortSettings, error) {
	cohorts, err := e.catalogue.Cohorts(cohortNames)
	if err != nil {
		return nil, err
	}

	settings := make([]types.CohortSettings, 0, len(cohorts))
	for _, client := range cohorts {
		opts, err := client.GetDisclosureSettings(ctx)
		if err != nil {
			return nil, err
		}
		settings = append(settings, types.CohortSettings{
			Cohort:          client.Name(),
			Options:         opts,
			TabThreshold:    opts.TabThreshold(),
			SubsetThreshold: opts.SubsetThreshold(),
		})
	}
	return settings, nil
}
