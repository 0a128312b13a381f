package opal

import (
	"fmt"
	"strconv"
)

// Value types used in Opal data dictionaries.
const (
	TypeInteger = "integer"
	TypeDecimal = "decimal"
	TypeText    = "text"
	TypeBoolean = "boolean"
)

// Category is one level of a categorical variable, as declared in the
// cohort's data dictionary.
type Category struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

// VariableMeta is a variable's entry in a cohort's data dictionary.
type VariableMeta struct {
	Name       string     `json:"name"`
	ValueType  string     `json:"valueType"`
	Label      string     `json:"label,omitempty"`
	Unit       string     `json:"unit,omitempty"`
	Categories []Category `json:"categories,omitempty"`
}

// IsCategorical reports whether the variable is treated as categorical:
// either it declares category levels or its value type is non-numeric.
func (v VariableMeta) IsCategorical() bool {
	if len(v.Categories) > 0 {
		return true
	}
	return v.ValueType == TypeText || v.ValueType == TypeBoolean
}

// TableRef identifies a table within an Opal project.
type TableRef struct {
	Name       string `json:"name"`
	EntityType string `json:"entityType,omitempty"`
}

// FreqTable is the result of a one-dimensional frequency aggregate.
// Levels and Counts are parallel.
type FreqTable struct {
	Levels []string `json:"levels"`
	Counts []int64  `json:"counts"`
}

// Descriptive is the result of a descriptive-statistics aggregate over a
// numeric vector. The server refuses the call when the valid count falls
// below its disclosure threshold.
type Descriptive struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	NValid   int64   `json:"nvalid"`
	NMissing int64   `json:"nmissing"`
	NTotal   int64   `json:"ntotal"`
}

// QuantileMean is the result of a quantile aggregate. Quantiles is keyed
// by percentile label ("5%", "10%", ..., "95%"); values are computed on the
// server from the cohort's data, never from individual records returned here.
type QuantileMean struct {
	Quantiles map[string]float64 `json:"quantiles"`
	Mean      float64            `json:"mean"`
}

// MissingCount is the result of a missingness aggregate.
type MissingCount struct {
	NMissing int64 `json:"nmissing"`
	NTotal   int64 `json:"ntotal"`
}

// Length is the result of a length aggregate over a server-side object.
type Length struct {
	Length int64 `json:"length"`
}

// DisclosureSettings holds a server's disclosure-control options
// (the nfilter.* family), keyed by option name with string values.
type DisclosureSettings map[string]string

// Disclosure option names.
const (
	OptionTabThreshold    = "nfilter.tab"
	OptionSubsetThreshold = "nfilter.subset"
)

// intOption returns the named option parsed as an integer, or fallback when
// absent or unparseable.
func (s DisclosureSettings) intOption(name string, fallback int) int {
	v, ok := s[name]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// TabThreshold returns the minimum cell count for frequency tables.
func (s DisclosureSettings) TabThreshold() int {
	return s.intOption(OptionTabThreshold, 3)
}

// SubsetThreshold returns the minimum allowed size of a non-empty subset.
func (s DisclosureSettings) SubsetThreshold() int {
	return s.intOption(OptionSubsetThreshold, 3)
}

// APIError represents an error response from a cohort server.
type APIError struct {
	Cohort     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cohort %s: server error %d: %s", e.Cohort, e.StatusCode, e.Message)
}

// errorResponse is the JSON structure for server errors.
type errorResponse struct {
	Error string `json:"error"`
}
