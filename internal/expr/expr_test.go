package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		wantErr bool
	}{
		{"simple", "D", false},
		{"with underscore", "fedsum_filter_1", false},
		{"with dot", "core.bmi", false},
		{"empty", "", true},
		{"leading digit", "1df", true},
		{"injection attempt", "D); system('ls'", true},
		{"whitespace", "my frame", true},
		{"dollar", "D$bmi", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbol(tt.symbol)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOperator(t *testing.T) {
	for _, op := range []string{">", ">=", "<", "<="} {
		assert.NoError(t, ValidateOperator(op))
	}
	require.Error(t, ValidateOperator("=="))
	require.Error(t, ValidateOperator(""))
	require.Error(t, ValidateOperator(">= 1; drop"))
}

func TestExpressions(t *testing.T) {
	assert.Equal(t, `loadTableDS("lifecycle.core_1_0")`, LoadTable("lifecycle", "core_1_0"))
	assert.Equal(t, "table1dDS(D$sex)", FreqTable("D", "sex"))
	assert.Equal(t, "numNaDS(D$sex)", MissingCount("D", "sex"))
	assert.Equal(t, "descriptiveDS(D$bmi)", Descriptive("D", "bmi"))
	assert.Equal(t, "quantileMeanDS(D$bmi)", QuantileMean("D", "bmi"))
	assert.Equal(t, "lengthDS(subset_1$bmi)", Length("subset_1$bmi"))
	assert.Equal(t, "subsetDS(D, fedsum_filter_1)", SubsetRows("D", "fedsum_filter_1"))
	assert.Equal(t, "completeCasesDS(D$bmi, D$sex)", CompleteCases("D", []string{"bmi", "sex"}))
}

func TestBandFilter(t *testing.T) {
	got := BandFilter("D", "age", 20, 30, ">=", "<")
	assert.Equal(t, "((D$age >= 20) * (D$age < 30))", got)

	// Fractional cut-points keep full precision without trailing zeros.
	got = BandFilter("D", "bmi", 18.5, 25, ">=", "<")
	assert.Equal(t, "((D$bmi >= 18.5) * (D$bmi < 25))", got)
}
