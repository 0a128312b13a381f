package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cohortware/fedsum/pkg/render"
	"github.com/cohortware/fedsum/pkg/types"
)

// BandSubsetsInput is the input for fedsum_band_subsets.
type BandSubsetsInput struct {
	Project string `json:"project"`
	Table   string `json:"table"`
	// Spec is the band specification as a JSON document:
	// {"variable": "bmi", "bands": [{"lower": 20, "upper": 25}, ...],
	//  "operators": {"lower": ">=", "upper": "<"}}
	Spec         string   `json:"spec"`
	SymbolPrefix string   `json:"symbol_prefix,omitzero"`
	KeepSymbols  bool     `json:"keep_symbols,omitzero"`
	Cohorts      []string `json:"cohorts,omitzero"`
	Format       string   `json:"format,omitzero"`
}

// BandSubsetsOutput is the output for fedsum_band_subsets.
type BandSubsetsOutput struct {
	Variable string          `json:"variable"`
	Rows     []types.BandRow `json:"rows,omitzero"`
	Warnings []string        `json:"warnings,omitzero"`

	RowsCSV string `json:"rows_csv,omitzero"`
}

// ToolBandSubsets creates disclosure-checked remote subsets, one per band
// of a numeric variable.
func ToolBandSubsets(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input BandSubsetsInput) (*sdkmcp.CallToolResult, BandSubsetsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input BandSubsetsInput) (*sdkmcp.CallToolResult, BandSubsetsOutput, error) {
		if input.Project == "" || input.Table == "" {
			return nil, BandSubsetsOutput{}, ErrInvalidInput("project and table are required")
		}
		if input.Spec == "" {
			return nil, BandSubsetsOutput{}, ErrInvalidInput("spec is required")
		}

		spec, err := d.BandSpec.Parse([]byte(input.Spec))
		if err != nil {
			return nil, BandSubsetsOutput{}, ErrInvalidInput(err.Error())
		}

		report, err := d.Engine.BandSubsets(ctx, &types.BandRequest{
			Project:      input.Project,
			Table:        input.Table,
			Spec:         *spec,
			SymbolPrefix: input.SymbolPrefix,
			KeepSymbols:  input.KeepSymbols,
			Cohorts:      input.Cohorts,
		})
		if err != nil {
			return nil, BandSubsetsOutput{}, WrapCohortError(err)
		}

		output := BandSubsetsOutput{
			Variable: report.Variable,
			Rows:     report.Rows,
			Warnings: report.Warnings,
		}

		if strings.EqualFold(input.Format, "csv") {
			var buf strings.Builder
			if err := render.BandsCSV(&buf, report.Rows); err != nil {
				return nil, BandSubsetsOutput{}, err
			}
			output.RowsCSV = buf.String()
		}

		return nil, output, nil
	}
}

// ValidateBandSpecInput is the input for fedsum_validate_band_spec.
type ValidateBandSpecInput struct {
	// Spec is the band specification JSON document to check.
	Spec string `json:"spec"`
}

// ValidateBandSpecOutput is the output for fedsum_validate_band_spec.
type ValidateBandSpecOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitzero"`
}

// ToolValidateBandSpec validates a band specification document without
// touching any cohort server.
func ToolValidateBandSpec(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateBandSpecInput) (*sdkmcp.CallToolResult, ValidateBandSpecOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateBandSpecInput) (*sdkmcp.CallToolResult, ValidateBandSpecOutput, error) {
		if input.Spec == "" {
			return nil, ValidateBandSpecOutput{}, ErrInvalidInput("spec is required")
		}

		res := d.BandSpec.Validate([]byte(input.Spec))
		return nil, ValidateBandSpecOutput{Valid: res.Valid, Errors: res.Errors}, nil
	}
}
