package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cohortware/fedsum/pkg/render"
	"github.com/cohortware/fedsum/pkg/types"
)

// SummaryStatsInput is the input for fedsum_summary_stats.
type SummaryStatsInput struct {
	Project   string   `json:"project"`
	Table     string   `json:"table"`
	Variables []string `json:"variables"`
	Cohorts   []string `json:"cohorts,omitzero"`
	// Format selects the output encoding: "json" (default) returns the tidy
	// rows, "csv" additionally includes CSV renderings.
	Format string `json:"format,omitzero"`
}

// SummaryStatsOutput is the output for fedsum_summary_stats.
type SummaryStatsOutput struct {
	Categorical []types.CategoricalRow `json:"categorical,omitzero"`
	Continuous  []types.ContinuousRow  `json:"continuous,omitzero"`
	Warnings    []string               `json:"warnings,omitzero"`

	CategoricalCSV string `json:"categorical_csv,omitzero"`
	ContinuousCSV  string `json:"continuous_csv,omitzero"`
}

// ToolSummaryStats produces summary tables for harmonized variables across
// cohorts.
func ToolSummaryStats(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SummaryStatsInput) (*sdkmcp.CallToolResult, SummaryStatsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SummaryStatsInput) (*sdkmcp.CallToolResult, SummaryStatsOutput, error) {
		if input.Project == "" || input.Table == "" {
			return nil, SummaryStatsOutput{}, ErrInvalidInput("project and table are required")
		}
		if len(input.Variables) == 0 {
			return nil, SummaryStatsOutput{}, ErrInvalidInput("at least one variable is required")
		}

		report, err := d.Engine.SummaryStats(ctx, &types.SummaryRequest{
			Project:   input.Project,
			Table:     input.Table,
			Variables: input.Variables,
			Cohorts:   input.Cohorts,
		})
		if err != nil {
			return nil, SummaryStatsOutput{}, WrapCohortError(err)
		}

		output := SummaryStatsOutput{
			Categorical: report.Categorical,
			Continuous:  report.Continuous,
			Warnings:    report.Warnings,
		}

		if strings.EqualFold(input.Format, "csv") {
			var cat, cont strings.Builder
			if err := render.CategoricalCSV(&cat, report.Categorical); err != nil {
				return nil, SummaryStatsOutput{}, err
			}
			if err := render.ContinuousCSV(&cont, report.Continuous); err != nil {
				return nil, SummaryStatsOutput{}, err
			}
			output.CategoricalCSV = cat.String()
			output.ContinuousCSV = cont.String()
		}

		return nil, output, nil
	}
}
