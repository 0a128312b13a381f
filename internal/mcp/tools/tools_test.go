package tools

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortware/fedsum/internal/bandspec"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/internal/query"
	"github.com/cohortware/fedsum/pkg/opal"
)

func testDeps(t *testing.T) *Deps {
	t.Helper()
	v, err := bandspec.NewValidator()
	require.NoError(t, err)
	return &Deps{
		Query:    query.NewEngine(),
		BandSpec: v,
		Config: &config.Config{
			DefaultSearchLimit: 20,
			DefaultQueryLimit:  1000,
		},
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var coded *CodedError
	require.ErrorAs(t, err, &coded)
	return coded.Code
}

func TestWrapCohortError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found",
			err:  &opal.APIError{Cohort: "alspac", StatusCode: http.StatusNotFound, Message: "no such table"},
			want: ErrCodeNotFound,
		},
		{
			name: "disclosure refusal",
			err:  &opal.APIError{Cohort: "alspac", StatusCode: http.StatusForbidden, Message: "disclosure risk: subset too small"},
			want: ErrCodeDisclosure,
		},
		{
			name: "other forbidden",
			err:  &opal.APIError{Cohort: "alspac", StatusCode: http.StatusForbidden, Message: "invalid token"},
			want: ErrCodeCohortError,
		},
		{
			name: "server error",
			err:  &opal.APIError{Cohort: "alspac", StatusCode: http.StatusInternalServerError, Message: "boom"},
			want: ErrCodeCohortError,
		},
		{
			name: "deadline",
			err:  errors.New("Get http://x: context deadline exceeded"),
			want: ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codeOf(t, WrapCohortError(tt.err)))
		})
	}

	assert.NoError(t, WrapCohortError(nil))
}

func TestToolValidateBandSpec(t *testing.T) {
	handler := ToolValidateBandSpec(testDeps(t))
	ctx := context.Background()

	_, out, err := handler(ctx, nil, ValidateBandSpecInput{
		Spec: `{"variable": "bmi", "bands": [{"lower": 20, "upper": 25}]}`,
	})
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)

	_, out, err = handler(ctx, nil, ValidateBandSpecInput{Spec: `{"variable": "bmi"}`})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.Errors)

	_, _, err = handler(ctx, nil, ValidateBandSpecInput{})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestToolQueryReport(t *testing.T) {
	handler := ToolQueryReport(testDeps(t))
	ctx := context.Background()

	report := `{"categorical": [
		{"variable": "sex", "cohort": "alspac", "count": 40},
		{"variable": "sex", "cohort": "combined", "count": 70}
	]}`

	_, out, err := handler(ctx, nil, QueryReportInput{
		Report:     report,
		Expression: `.categorical[] | select(.cohort == "combined") | .count`,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(70)}, out.Values)
	assert.Equal(t, 1, out.RawCount)

	_, _, err = handler(ctx, nil, QueryReportInput{Report: report, Expression: ".bad["})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))

	_, _, err = handler(ctx, nil, QueryReportInput{Expression: "."})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestToolSummaryStatsInputValidation(t *testing.T) {
	handler := ToolSummaryStats(testDeps(t))
	ctx := context.Background()

	_, _, err := handler(ctx, nil, SummaryStatsInput{Table: "core", Variables: []string{"sex"}})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))

	_, _, err = handler(ctx, nil, SummaryStatsInput{Project: "lifecycle", Table: "core"})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestToolBandSubsetsInputValidation(t *testing.T) {
	handler := ToolBandSubsets(testDeps(t))
	ctx := context.Background()

	_, _, err := handler(ctx, nil, BandSubsetsInput{Project: "lifecycle", Table: "core"})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))

	_, _, err = handler(ctx, nil, BandSubsetsInput{
		Project: "lifecycle", Table: "core",
		Spec: `{"variable": "bmi", "bands": []}`,
	})
	assert.Equal(t, ErrCodeInvalidInput, codeOf(t, err))
}

func TestCheckOutputSchemaAcceptsToolOutputs(t *testing.T) {
	// All builtin output types must pass the zero-value check, otherwise
	// Register would panic at startup.
	assert.NotPanics(t, func() {
		CheckOutputSchema[SummaryStatsOutput]("fedsum_summary_stats")
		CheckOutputSchema[BandSubsetsOutput]("fedsum_band_subsets")
		CheckOutputSchema[ValidateBandSpecOutput]("fedsum_validate_band_spec")
		CheckOutputSchema[SearchCatalogueOutput]("fedsum_search_catalogue")
		CheckOutputSchema[DisclosureSettingsOutput]("fedsum_disclosure_settings")
		CheckOutputSchema[QueryReportOutput]("fedsum_query_report")
	})
}

func TestCheckOutputSchemaRejectsNilSlice(t *testing.T) {
	type badOutput struct {
		Rows []string `json:"rows"`
	}
	assert.Panics(t, func() {
		CheckOutputSchema[badOutput]("bad_tool")
	})
}
