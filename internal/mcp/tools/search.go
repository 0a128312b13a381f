package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cohortware/fedsum/internal/catalogue"
)

// SearchCatalogueInput is the input for fedsum_search_catalogue.
type SearchCatalogueInput struct {
	Project string `json:"project"`
	Table   string `json:"table"`
	// Query is free text matched against variable names and dictionary
	// labels; tokens are ANDed.
	Query   string   `json:"query"`
	Cohorts []string `json:"cohorts,omitzero"`
	Limit   int      `json:"limit,omitzero"`
}

// SearchCatalogueOutput is the output for fedsum_search_catalogue.
type SearchCatalogueOutput struct {
	Hits []catalogue.SearchHit `json:"hits,omitzero"`
}

// ToolSearchCatalogue searches the cohorts' data dictionaries for variables
// by name or label.
func ToolSearchCatalogue(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchCatalogueInput) (*sdkmcp.CallToolResult, SearchCatalogueOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SearchCatalogueInput) (*sdkmcp.CallToolResult, SearchCatalogueOutput, error) {
		if input.Project == "" || input.Table == "" {
			return nil, SearchCatalogueOutput{}, ErrInvalidInput("project and table are required")
		}
		if input.Query == "" {
			return nil, SearchCatalogueOutput{}, ErrInvalidInput("query is required")
		}

		cohorts, err := d.Catalogue.Cohorts(input.Cohorts)
		if err != nil {
			return nil, SearchCatalogueOutput{}, ErrInvalidInput(err.Error())
		}
		if err := d.Catalogue.Sync(ctx, cohorts, input.Project, input.Table); err != nil {
			return nil, SearchCatalogueOutput{}, WrapCohortError(err)
		}

		limit := input.Limit
		if limit <= 0 {
			limit = d.Config.DefaultSearchLimit
		}

		return nil, SearchCatalogueOutput{Hits: d.Catalogue.Search(input.Query, limit)}, nil
	}
}
