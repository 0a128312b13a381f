package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: fedsum_summary_stats
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fedsum_summary_stats",
		Description: "Produce tidy summary tables for harmonized variables across cohorts. Categorical variables get per-level counts and percentages, continuous variables get mean, standard deviation and percentiles, each per cohort plus a pooled 'combined' row. Variable classes are resolved from the remote data dictionaries. Set format to 'csv' to additionally get CSV renderings.",
	}, ToolSummaryStats(d))

	// Tool 2: fedsum_band_subsets
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fedsum_band_subsets",
		Description: "Create server-side row subsets of a harmonized table, one per numeric band (e.g. BMI 20-25, 25-30). Returns the size of each subset per cohort and flags subsets below the cohort's disclosure threshold. Set keep_symbols to leave non-violating subsets on the servers for follow-up analysis. The spec argument is a band-spec JSON document; use fedsum_validate_band_spec to check it first.",
	}, ToolBandSubsets(d))

	// Tool 3: fedsum_validate_band_spec
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fedsum_validate_band_spec",
		Description: "Validate a band specification JSON document against its schema without contacting any cohort server. Returns per-path validation errors.",
	}, ToolValidateBandSpec(d))

	// Tool 4: fedsum_search_catalogue
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fedsum_search_catalogue",
		Description: "Search the cohorts' data dictionaries for variables by name or label (free-text tokens ANDed). Returns matching variables with their value types and the cohorts that provide them.",
	}, ToolSearchCatalogue(d))

	// Tool 5: fedsum_disclosure_settings
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fedsum_disclosure_settings",
		Description: "Read every cohort's disclosure-control settings (nfilter.* options) with the parsed frequency-table and subset thresholds.",
	}, ToolDisclosureSettings(d))

	// Tool 6: fedsum_query_report
	AddTool(srv, &sdkmcp.Tool{
		Name:        "fedsum_query_report",
		Description: "Extract values from a summary or band report with a jq expression, e.g. '.categorical[] | select(.cohort == \"combined\") | .count'. Use this to slice a report by cohort, variable or level without re-running remote calls.",
	}, ToolQueryReport(d))
}
