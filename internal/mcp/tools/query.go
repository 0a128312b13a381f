package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// QueryReportInput is the input for fedsum_query_report.
type QueryReportInput struct {
	// Report is a JSON document, typically the output of fedsum_summary_stats
	// or fedsum_band_subsets.
	Report string `json:"report"`
	// Expression is a jq expression, e.g.
	// `.categorical[] | select(.cohort == "combined")`.
	Expression  string `json:"expression"`
	Deduplicate bool   `json:"deduplicate,omitzero"`
	MaxResults  int    `json:"max_results,omitzero"`
}

// QueryReportOutput is the output for fedsum_query_report.
type QueryReportOutput struct {
	Values   []any    `json:"values,omitzero"`
	Errors   []string `json:"errors,omitzero"`
	RawCount int      `json:"raw_count"`
}

// ToolQueryReport extracts values from a report with a jq expression.
func ToolQueryReport(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryReportInput) (*sdkmcp.CallToolResult, QueryReportOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryReportInput) (*sdkmcp.CallToolResult, QueryReportOutput, error) {
		if input.Report == "" {
			return nil, QueryReportOutput{}, ErrInvalidInput("report is required")
		}
		if input.Expression == "" {
			return nil, QueryReportOutput{}, ErrInvalidInput("expression is required")
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = d.Config.DefaultQueryLimit
		}

		result, err := d.Query.Query([]byte(input.Report), input.Expression, input.Deduplicate, maxResults)
		if err != nil {
			return nil, QueryReportOutput{}, ErrInvalidInput(err.Error())
		}

		return nil, QueryReportOutput{
			Values:   result.Values,
			Errors:   result.Errors,
			RawCount: result.RawCount,
		}, nil
	}
}
