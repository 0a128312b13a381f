// Package types defines the request and tidy result types shared by the
// fedsum library, its renderers, and the MCP tool layer.
package types

// CombinedCohort is the cohort identifier used for rows pooled across all
// contributing cohorts.
const CombinedCohort = "combined"

// Variable classes resolved from the remote data dictionaries.
const (
	ClassCategorical = "categorical"
	ClassContinuous  = "continuous"
)

// SummaryRequest asks for summary tables of one or more harmonized
// variables across cohorts.
type SummaryRequest struct {
	// Project and Table locate the harmonized table on every cohort server.
	Project string `json:"project"`
	Table   string `json:"table"`
	// Variables to summarise. Class (categorical vs continuous) is resolved
	// from the remote data dictionaries, never guessed locally.
	Variables []string `json:"variables"`
	// Cohorts restricts the run to a subset of configured cohorts.
	// Empty means all.
	Cohorts []string `json:"cohorts,omitempty"`
}

// CategoricalRow is one cell of a categorical summary table: one variable
// level in one cohort (or the pooled "combined" cohort).
type CategoricalRow struct {
	Variable    string  `json:"variable"`
	Cohort      string  `json:"cohort"`
	Level       string  `json:"level"`
	Count       int64   `json:"count"`
	CohortN     int64   `json:"cohort_n"`
	ValidN      int64   `json:"valid_n"`
	MissingN    int64   `json:"missing_n"`
	PercValid   float64 `json:"perc_valid"`
	PercTotal   float64 `json:"perc_total"`
	PercMissing float64 `json:"perc_missing"`
}

// Quantiles holds the percentile set returned by the remote quantile
// aggregate.
type Quantiles struct {
	P5  float64 `json:"p5"`
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

// ContinuousRow is one cohort's summary of a continuous variable (or the
// pooled "combined" row).
type ContinuousRow struct {
	Variable    string    `json:"variable"`
	Cohort      string    `json:"cohort"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	Quantiles   Quantiles `json:"quantiles"`
	CohortN     int64     `json:"cohort_n"`
	ValidN      int64     `json:"valid_n"`
	MissingN    int64     `json:"missing_n"`
	PercMissing float64   `json:"perc_missing"`
}

// SummaryReport is the combined result of a SummaryStats run.
type SummaryReport struct {
	Categorical []CategoricalRow `json:"categorical"`
	Continuous  []ContinuousRow  `json:"continuous"`
	// Warnings records non-fatal conditions, e.g. cohorts skipped because a
	// variable is absent from their dictionary.
	Warnings []string `json:"warnings,omitempty"`
}

// CohortSettings is one cohort's disclosure-control settings in tidy form.
type CohortSettings struct {
	Cohort          string            `json:"cohort"`
	Options         map[string]string `json:"options"`
	TabThreshold    int               `json:"tab_threshold"`
	SubsetThreshold int               `json:"subset_threshold"`
}
