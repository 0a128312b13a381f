package opal

import (
	"context"
	"fmt"
	"net/url"
)

// expressionRequest is the JSON body for assign and aggregate calls.
type expressionRequest struct {
	Expression string `json:"expression"`
}

// Assign evaluates expression on the server and binds the result to symbol
// in the session environment. Nothing is returned to the client.
func (c *Client) Assign(ctx context.Context, symbol, expression string) error {
	path, err := c.sessionPath("/symbols/" + url.PathEscape(symbol))
	if err != nil {
		return err
	}
	if err := c.post(ctx, path, expressionRequest{Expression: expression}, nil); err != nil {
		return fmt.Errorf("assigning %q on %s: %w", symbol, c.name, err)
	}
	return nil
}

// Aggregate evaluates expression on the server and decodes the
// disclosure-limited JSON result into result.
func (c *Client) Aggregate(ctx context.Context, expression string, result any) error {
	path, err := c.sessionPath("/aggregate")
	if err != nil {
		return err
	}
	if err := c.post(ctx, path, expressionRequest{Expression: expression}, result); err != nil {
		return fmt.Errorf("aggregating on %s: %w", c.name, err)
	}
	return nil
}

// ListSymbols returns the names of all symbols in the session environment.
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	path, err := c.sessionPath("/symbols")
	if err != nil {
		return nil, err
	}
	var symbols []string
	if err := c.get(ctx, path, &symbols); err != nil {
		return nil, fmt.Errorf("listing symbols on %s: %w", c.name, err)
	}
	return symbols, nil
}

// RemoveSymbol deletes a symbol from the session environment.
func (c *Client) RemoveSymbol(ctx context.Context, symbol string) error {
	path, err := c.sessionPath("/symbols/" + url.PathEscape(symbol))
	if err != nil {
		return err
	}
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("removing %q on %s: %w", symbol, c.name, err)
	}
	return nil
}
