// Package render writes the tidy report tables as CSV for downstream
// analysis tools.
package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cohortware/fedsum/pkg/types"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// CategoricalCSV writes the categorical summary rows with a header line.
func CategoricalCSV(w io.Writer, rows []types.CategoricalRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"variable", "cohort", "level", "count",
		"cohort_n", "valid_n", "missing_n",
		"perc_valid", "perc_total", "perc_missing",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Variable, r.Cohort, r.Level, formatInt(r.Count),
			formatInt(r.CohortN), formatInt(r.ValidN), formatInt(r.MissingN),
			formatFloat(r.PercValid), formatFloat(r.PercTotal), formatFloat(r.PercMissing),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ContinuousCSV writes the continuous summary rows with a header line.
func ContinuousCSV(w io.Writer, rows []types.ContinuousRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"variable", "cohort", "mean", "std_dev",
		"p5", "p10", "p25", "p50", "p75", "p90", "p95",
		"cohort_n", "valid_n", "missing_n", "perc_missing",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Variable, r.Cohort, formatFloat(r.Mean), formatFloat(r.StdDev),
			formatFloat(r.Quantiles.P5), formatFloat(r.Quantiles.P10),
			formatFloat(r.Quantiles.P25), formatFloat(r.Quantiles.P50),
			formatFloat(r.Quantiles.P75), formatFloat(r.Quantiles.P90),
			formatFloat(r.Quantiles.P95),
			formatInt(r.CohortN), formatInt(r.ValidN), formatInt(r.MissingN),
			formatFloat(r.PercMissing),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BandsCSV writes the band subset rows with a header line.
func BandsCSV(w io.Writer, rows []types.BandRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"variable", "cohort", "band", "lower", "upper",
		"count", "symbol", "disclosure_violation",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Variable, r.Cohort, r.Band,
			formatFloat(r.Lower), formatFloat(r.Upper),
			formatInt(r.Count), r.Symbol, strconv.FormatBool(r.DisclosureViolation),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SettingsCSV writes the per-cohort disclosure settings with a header line.
func SettingsCSV(w io.Writer, settings []types.CohortSettings) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cohort", "tab_threshold", "subset_threshold"}); err != nil {
		return err
	}
	for _, s := range settings {
		record := []string{s.Cohort, strconv.Itoa(s.TabThreshold), strconv.Itoa(s.SubsetThreshold)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
