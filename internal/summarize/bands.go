package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohortware/fedsum/internal/expr"
	"github.com/cohortware/fedsum/pkg/opal"
	"github.com/cohortware/fedsum/pkg/types"
)

// DefaultSymbolPrefix names band subset symbols when the request leaves
// SymbolPrefix empty.
const DefaultSymbolPrefix = "subset"

// validateBandRequest checks the band specification before any remote call.
func validateBandRequest(req *types.BandRequest) (types.BandOperators, string, error) {
	if req.Spec.Variable == "" {
		return types.BandOperators{}, "", fmt.Errorf("band variable is required")
	}
	if err := expr.ValidateSymbol(req.Spec.Variable); err != nil {
		return types.BandOperators{}, "", err
	}
	if len(req.Spec.Bands) == 0 {
		return types.BandOperators{}, "", fmt.Errorf("at least one band is required")
	}
	for i, band := range req.Spec.Bands {
		if band.Lower >= band.Upper {
			return types.BandOperators{}, "", fmt.Errorf(
				"band %d: lower bound %g must be less than upper bound %g", i+1, band.Lower, band.Upper)
		}
	}

	ops := types.DefaultBandOperators()
	if req.Spec.Operators != nil {
		ops = *req.Spec.Operators
	}
	if err := expr.ValidateOperator(ops.Lower); err != nil {
		return types.BandOperators{}, "", fmt.Errorf("lower operator: %w", err)
	}
	if err := expr.ValidateOperator(ops.Upper); err != nil {
		return types.BandOperators{}, "", fmt.Errorf("upper operator: %w", err)
	}

	prefix := req.SymbolPrefix
	if prefix == "" {
		prefix = DefaultSymbolPrefix
	}
	if err := expr.ValidateSymbol(prefix); err != nil {
		return types.BandOperators{}, "", fmt.Errorf("symbol prefix: %w", err)
	}

	return ops, prefix, nil
}

// BandSubsets drives a sequence of remote filter operations from the band
// specification: per band per cohort it assigns a boolean filter, assigns
// the row subset, and aggregates the subset's length, checking it against
// the cohort's disclosure threshold.
//
// Subset symbols survive the run only when KeepSymbols is set and the
// subset does not violate the cohort's threshold; filter symbols and the
// temporary work frame are always removed.
func (e *Engine) BandSubsets(ctx context.Context, req *types.BandRequest) (*types.BandReport, error) {
	start := time.Now()

	ops, prefix, err := validateBandRequest(req)
	if err != nil {
		return nil, err
	}

	cohorts, err := e.catalogue.Cohorts(req.Cohorts)
	if err != nil {
		return nil, err
	}

	resolved, warnings, err := e.catalogue.Resolve(ctx, cohorts, req.Project, req.Table, []string{req.Spec.Variable})
	if err != nil {
		return nil, err
	}
	rv := resolved[req.Spec.Variable]
	if rv.Class != types.ClassContinuous {
		return nil, fmt.Errorf("band subsets require a continuous variable; %q is categorical", req.Spec.Variable)
	}

	providing, err := e.catalogue.Cohorts(rv.Cohorts)
	if err != nil {
		return nil, err
	}
	frames, cleanup, err := e.prepareFrames(ctx, providing, req.Project, req.Table)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	report := &types.BandReport{
		Variable: req.Spec.Variable,
		Rows:     []types.BandRow{},
		Warnings: warnings,
	}

	for _, f := range frames {
		settings, err := f.client.GetDisclosureSettings(ctx)
		if err != nil {
			return nil, err
		}
		threshold := int64(settings.SubsetThreshold())

		for i, band := range req.Spec.Bands {
			row, err := e.bandCell(ctx, f, req.Spec.Variable, band, ops, prefix, i, threshold, req.KeepSymbols)
			if err != nil {
				return nil, err
			}
			report.Rows = append(report.Rows, row)

			if row.DisclosureViolation {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"cohort %s band %s: subset of %d rows is below the disclosure threshold %d; subset removed",
					f.client.Name(), row.Band, row.Count, threshold))
			}
		}
	}

	slog.Info("band subsets completed",
		slog.String("table", req.Project+"."+req.Table),
		slog.String("variable", req.Spec.Variable),
		slog.Int("bands", len(req.Spec.Bands)),
		slog.Int("cohorts", len(frames)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return report, nil
}

// bandCell materializes one band in one cohort and measures it.
func (e *Engine) bandCell(ctx context.Context, f cohortFrame, variable string, band types.Band, ops types.BandOperators, prefix string, idx int, threshold int64, keep bool) (types.BandRow, error) {
	filterSymbol := fmt.Sprintf("fedsum_filter_%d", idx+1)
	subsetSymbol := fmt.Sprintf("%s_%d", prefix, idx+1)

	filter := expr.BandFilter(f.frame, variable, band.Lower, band.Upper, ops.Lower, ops.Upper)
	if err := f.client.Assign(ctx, filterSymbol, filter); err != nil {
		return types.BandRow{}, err
	}
	// The filter symbol is transient regardless of outcome.
	defer func() {
		if err := f.client.RemoveSymbol(ctx, filterSymbol); err != nil {
			slog.Warn("failed to remove filter symbol",
				slog.String("cohort", f.client.Name()),
				slog.String("symbol", filterSymbol),
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := f.client.Assign(ctx, subsetSymbol, expr.SubsetRows(f.frame, filterSymbol)); err != nil {
		return types.BandRow{}, err
	}

	var length opal.Length
	if err := f.client.Aggregate(ctx, expr.Length(subsetSymbol), &length); err != nil {
		return types.BandRow{}, err
	}

	violation := length.Length > 0 && length.Length < threshold

	row := types.BandRow{
		Variable:            variable,
		Cohort:              f.client.Name(),
		Band:                band.Label(ops),
		Lower:               band.Lower,
		Upper:               band.Upper,
		Count:               length.Length,
		DisclosureViolation: violation,
	}

	if keep && !violation {
		row.Symbol = subsetSymbol
		return row, nil
	}

	if err := f.client.RemoveSymbol(ctx, subsetSymbol); err != nil {
		return types.BandRow{}, fmt.Errorf("removing subset symbol: %w", err)
	}
	return row, nil
}
