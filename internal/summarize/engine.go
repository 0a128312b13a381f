// Package summarize orchestrates the federated summary routines: sequences
// of remote assign/aggregate calls per cohort, client-side pooling of the
// disclosure-limited results, and cleanup of temporary remote objects.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cohortware/fedsum/internal/catalogue"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/internal/expr"
	"github.com/cohortware/fedsum/pkg/opal"
)

// workFrame is the temporary server-side data frame symbol each run
// assigns and removes.
const workFrame = "fedsum_frame"

// Engine runs the federated summary routines over the configured cohorts.
type Engine struct {
	catalogue *catalogue.Catalogue
	config    *config.Config
}

// New creates an Engine.
func New(cat *catalogue.Catalogue, cfg *config.Config) *Engine {
	return &Engine{catalogue: cat, config: cfg}
}

// cohortFrame is one cohort's prepared session with the harmonized table
// assigned to the work frame symbol.
type cohortFrame struct {
	client *opal.Client
	frame  string

	openedSession bool
}

// prepareFrames opens sessions where needed and assigns the harmonized
// table to the work frame on every cohort. The returned cleanup removes the
// temporary frames (and closes sessions this run opened) and must run even
// on error paths; it uses a fresh context so cleanup still happens when the
// caller's context is cancelled.
func (e *Engine) prepareFrames(ctx context.Context, cohorts []*opal.Client, project, table string) ([]cohortFrame, func(), error) {
	frames := make([]cohortFrame, 0, len(cohorts))

	cleanup := func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, f := range frames {
			if err := f.client.RemoveSymbol(cleanupCtx, f.frame); err != nil {
				slog.Warn("failed to remove temporary frame",
					slog.String("cohort", f.client.Name()),
					slog.String("symbol", f.frame),
					slog.String("error", err.Error()),
				)
			}
			if f.openedSession {
				if err := f.client.CloseSession(cleanupCtx); err != nil {
					slog.Warn("failed to close session",
						slog.String("cohort", f.client.Name()),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}

	for _, client := range cohorts {
		opened := false
		if !client.SessionOpen() {
			if err := client.OpenSession(ctx); err != nil {
				cleanup()
				return nil, nil, err
			}
			opened = true
		}
		if err := client.Assign(ctx, workFrame, expr.LoadTable(project, table)); err != nil {
			if opened {
				// The frame assign failed, so only the session needs closing.
				cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if cerr := client.CloseSession(cleanupCtx); cerr != nil {
					slog.Warn("failed to close session",
						slog.String("cohort", client.Name()),
						slog.String("error", cerr.Error()),
					)
				}
				cancel()
			}
			cleanup()
			return nil, nil, fmt.Errorf("preparing %s.%s on %s: %w", project, table, client.Name(), err)
		}
		frames = append(frames, cohortFrame{client: client, frame: workFrame, openedSession: opened})
	}

	return frames, cleanup, nil
}

// framesFor filters prepared frames to the cohorts providing a variable.
func framesFor(frames []cohortFrame, cohorts []string) []cohortFrame {
	providing := make(map[string]bool, len(cohorts))
	for _, name := range cohorts {
		providing[name] = true
	}
	out := make([]cohortFrame, 0, len(frames))
	for _, f := range frames {
		if providing[f.client.Name()] {
			out = append(out, f)
		}
	}
	return out
}
