// Package expr builds expressions for the cohort servers' remote evaluator.
//
// The federated platform accepts only string expressions; the server parses
// them against an allowlist of aggregate and assign functions. Everything
// here is plain string construction plus symbol validation — the evaluation
// semantics live entirely on the server.
package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// symbolPattern matches valid server-side symbol and variable names.
var symbolPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._]*$`)

// Comparison operators the band filter accepts.
const (
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
)

var validOperators = map[string]bool{
	OpGreater:      true,
	OpGreaterEqual: true,
	OpLess:         true,
	OpLessEqual:    true,
}

// ValidateSymbol checks that name is usable as a server-side symbol or
// variable name. The server applies its own parser restrictions; this
// check fails fast on names that would be rejected or could smuggle
// extra expressions into a call.
func ValidateSymbol(name string) error {
	if name == "" {
		return fmt.Errorf("symbol name is required")
	}
	if !symbolPattern.MatchString(name) {
		return fmt.Errorf("invalid symbol name %q", name)
	}
	return nil
}

// ValidateOperator checks a band comparison operator.
func ValidateOperator(op string) error {
	if !validOperators[op] {
		return fmt.Errorf("invalid comparison operator %q (want one of >, >=, <, <=)", op)
	}
	return nil
}

// formatNumber renders a cut-point the way the remote parser expects.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// varRef builds a data-frame column reference.
func varRef(frame, variable string) string {
	return frame + "$" + variable
}

// LoadTable builds the assign expression that materializes a project table
// as a server-side data frame.
func LoadTable(project, table string) string {
	return fmt.Sprintf("loadTableDS(%q)", project+"."+table)
}

// FreqTable builds the one-dimensional frequency aggregate for a
// categorical variable.
func FreqTable(frame, variable string) string {
	return fmt.Sprintf("table1dDS(%s)", varRef(frame, variable))
}

// MissingCount builds the missingness aggregate for a variable.
func MissingCount(frame, variable string) string {
	return fmt.Sprintf("numNaDS(%s)", varRef(frame, variable))
}

// Descriptive builds the descriptive-statistics aggregate for a numeric
// variable (mean, variance, valid/missing counts).
func Descriptive(frame, variable string) string {
	return fmt.Sprintf("descriptiveDS(%s)", varRef(frame, variable))
}

// QuantileMean builds the quantile aggregate for a numeric variable.
func QuantileMean(frame, variable string) string {
	return fmt.Sprintf("quantileMeanDS(%s)", varRef(frame, variable))
}

// Length builds the length aggregate for a server-side object.
func Length(symbol string) string {
	return fmt.Sprintf("lengthDS(%s)", symbol)
}

// BandFilter builds a boolean filter expression selecting rows where the
// variable falls inside a band: (v lowerOp lower) * (v upperOp upper).
// The product of the two comparisons is the conjunction the remote
// evaluator expects for element-wise boolean vectors.
func BandFilter(frame, variable string, lower, upper float64, lowerOp, upperOp string) string {
	ref := varRef(frame, variable)
	return fmt.Sprintf("((%s %s %s) * (%s %s %s))",
		ref, lowerOp, formatNumber(lower),
		ref, upperOp, formatNumber(upper),
	)
}

// SubsetRows builds the assign expression that keeps the rows of frame
// selected by a previously assigned boolean filter symbol.
func SubsetRows(frame, filterSymbol string) string {
	return fmt.Sprintf("subsetDS(%s, %s)", frame, filterSymbol)
}

// CompleteCases builds the assign expression that drops rows with any
// missing value across the named variables.
func CompleteCases(frame string, variables []string) string {
	refs := make([]string, len(variables))
	for i, v := range variables {
		refs[i] = varRef(frame, v)
	}
	return fmt.Sprintf("completeCasesDS(%s)", strings.Join(refs, ", "))
}
