package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DisclosureSettingsInput is the input for fedsum_disclosure_settings.
type DisclosureSettingsInput struct {
	Cohorts []string `json:"cohorts,omitzero"`
}

// CohortSettingsInfo is one cohort's disclosure-control settings.
type CohortSettingsInfo struct {
	Cohort          string            `json:"cohort"`
	Options         map[string]string `json:"options,omitzero"`
	TabThreshold    int               `json:"tab_threshold"`
	SubsetThreshold int               `json:"subset_threshold"`
}

// DisclosureSettingsOutput is the output for fedsum_disclosure_settings.
type DisclosureSettingsOutput struct {
	Settings []CohortSettingsInfo `json:"settings,omitzero"`
}

// ToolDisclosureSettings reads every cohort's disclosure-control thresholds.
func ToolDisclosureSettings(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DisclosureSettingsInput) (*sdkmcp.CallToolResult, DisclosureSettingsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DisclosureSettingsInput) (*sdkmcp.CallToolResult, DisclosureSettingsOutput, error) {
		settings, err := d.Engine.DisclosureReport(ctx, input.Cohorts)
		if err != nil {
			return nil, DisclosureSettingsOutput{}, WrapCohortError(err)
		}

		output := DisclosureSettingsOutput{
			Settings: make([]CohortSettingsInfo, len(settings)),
		}
		for i, s := range settings {
			output.Settings[i] = CohortSettingsInfo{
				Cohort:          s.Cohort,
				Options:         s.Options,
				TabThreshold:    s.TabThreshold,
				SubsetThreshold: s.SubsetThreshold,
			}
		}

		return nil, output, nil
	}
}
