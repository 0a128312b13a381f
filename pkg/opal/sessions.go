package opal

import (
	"context"
	"fmt"
	"net/url"
)

// sessionResponse is the JSON structure returned when opening a session.
type sessionResponse struct {
	ID string `json:"id"`
}

// OpenSession starts a server-side analysis session. All symbol and
// aggregate operations require an open session.
func (c *Client) OpenSession(ctx context.Context) error {
	var resp sessionResponse
	if err := c.post(ctx, "/datashield/sessions", nil, &resp); err != nil {
		return fmt.Errorf("opening session on %s: %w", c.name, err)
	}
	c.sessionID = resp.ID
	return nil
}

// CloseSession terminates the analysis session, discarding all server-side
// symbols. Safe to call when no session is open.
func (c *Client) CloseSession(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	path := "/datashield/sessions/" + url.PathEscape(c.sessionID)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("closing session on %s: %w", c.name, err)
	}
	c.sessionID = ""
	return nil
}

// SessionOpen reports whether a session is currently open.
func (c *Client) SessionOpen() bool {
	return c.sessionID != ""
}

// sessionPath builds a session-scoped path, returning an error when no
// session has been opened.
func (c *Client) sessionPath(suffix string) (string, error) {
	if c.sessionID == "" {
		return "", fmt.Errorf("cohort %s: no open session", c.name)
	}
	return "/datashield/sessions/" + url.PathEscape(c.sessionID) + suffix, nil
}
