package types

import "fmt"

// Band is one numeric interval of a band specification.
type Band struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BandOperators pairs the boolean comparison operators applied to the lower
// and upper cut-points of every band. The default is a half-open interval:
// >= lower, < upper.
type BandOperators struct {
	Lower string `json:"lower"`
	Upper string `json:"upper"`
}

// DefaultBandOperators returns the half-open interval operators.
func DefaultBandOperators() BandOperators {
	return BandOperators{Lower: ">=", Upper: "<"}
}

// Label renders a band as interval notation under the given operators,
// e.g. "[20,30)" for >= and <.
func (b Band) Label(ops BandOperators) string {
	left, right := "(", ")"
	if ops.Lower == ">=" {
		left = "["
	}
	if ops.Upper == "<=" {
		right = "]"
	}
	return fmt.Sprintf("%s%g,%g%s", left, b.Lower, b.Upper, right)
}

// BandSpec is the user-facing band specification document: a numeric
// variable plus the cut-points and comparison operators that drive the
// remote filter sequence. It is also the schema source for validating
// band-spec JSON files.
type BandSpec struct {
	Variable  string         `json:"variable"`
	Bands     []Band         `json:"bands"`
	Operators *BandOperators `json:"operators,omitempty"`
}

// BandRequest asks for disclosure-checked subsets of a harmonized table,
// one per band of a numeric variable.
type BandRequest struct {
	Project string   `json:"project"`
	Table   string   `json:"table"`
	Spec    BandSpec `json:"spec"`
	// SymbolPrefix names the server-side subset symbols ("<prefix>_<i>").
	// Defaults to "subset".
	SymbolPrefix string `json:"symbol_prefix,omitempty"`
	// KeepSymbols leaves the subset symbols in the remote sessions for
	// follow-up analysis instead of removing them on return.
	KeepSymbols bool `json:"keep_symbols,omitempty"`
	// Cohorts restricts the run to a subset of configured cohorts.
	Cohorts []string `json:"cohorts,omitempty"`
}

// BandRow is one band in one cohort: the subset's size and whether it
// falls below the cohort's disclosure threshold.
type BandRow struct {
	Variable string  `json:"variable"`
	Cohort   string  `json:"cohort"`
	Band     string  `json:"band"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Count    int64   `json:"count"`
	// Symbol is the server-side subset symbol, empty when the subset was
	// removed (KeepSymbols unset or disclosure violation).
	Symbol string `json:"symbol,omitempty"`
	// DisclosureViolation marks a non-empty subset smaller than the
	// cohort's nfilter.subset threshold. Violating subsets are always
	// removed from the server.
	DisclosureViolation bool `json:"disclosure_violation,omitempty"`
}

// BandReport is the combined result of a BandSubsets run.
type BandReport struct {
	Variable string    `json:"variable"`
	Rows     []BandRow `json:"rows"`
	Warnings []string  `json:"warnings,omitempty"`
}
