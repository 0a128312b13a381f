package opal

import (
	"context"
	"fmt"
	"net/url"
)

// ListTables returns the tables of an Opal project.
func (c *Client) ListTables(ctx context.Context, project string) ([]TableRef, error) {
	path := "/datasources/" + url.PathEscape(project) + "/tables"
	var tables []TableRef
	if err := c.get(ctx, path, &tables); err != nil {
		return nil, fmt.Errorf("listing tables of %q on %s: %w", project, c.name, err)
	}
	return tables, nil
}

// ListVariables returns the data dictionary of a table: every variable's
// name, value type, label and declared category levels. Dictionary access
// needs no open session; it reads catalogue metadata, not data.
func (c *Client) ListVariables(ctx context.Context, project, table string) ([]VariableMeta, error) {
	path := "/datasources/" + url.PathEscape(project) + "/tables/" + url.PathEscape(table) + "/variables"
	var vars []VariableMeta
	if err := c.get(ctx, path, &vars); err != nil {
		return nil, fmt.Errorf("listing variables of %q.%q on %s: %w", project, table, c.name, err)
	}
	return vars, nil
}

// GetDisclosureSettings reads the server's disclosure-control options.
// These thresholds are authoritative: the server enforces them on every
// aggregate; the client only reads them to warn before creating subsets
// that would be refused.
func (c *Client) GetDisclosureSettings(ctx context.Context) (DisclosureSettings, error) {
	var settings DisclosureSettings
	if err := c.get(ctx, "/datashield/options", &settings); err != nil {
		return nil, fmt.Errorf("reading disclosure settings on %s: %w", c.name, err)
	}
	return settings, nil
}
