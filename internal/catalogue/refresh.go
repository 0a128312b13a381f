package catalogue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cohortware/fedsum/internal/cache"
	"github.com/cohortware/fedsum/pkg/opal"
)

// fetchAll retrieves the table dictionary of every cohort, fanning out with
// a bounded worker group. Dictionary reads are pure metadata lookups with
// no ordering constraints, so this is the one place the client issues
// remote calls concurrently.
func (c *Catalogue) fetchAll(ctx context.Context, cohorts []*opal.Client, project, table string) (map[string][]opal.VariableMeta, error) {
	dicts := make(map[string][]opal.VariableMeta, len(cohorts))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.FetchWorkers)

	for _, client := range cohorts {
		g.Go(func() error {
			dict, err := c.dictionary(ctx, client, project, table)
			if err != nil {
				return err
			}
			mu.Lock()
			dicts[client.Name()] = dict
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dicts, nil
}

// Sync warms the dictionary cache and search index for a table across the
// given cohorts.
func (c *Catalogue) Sync(ctx context.Context, cohorts []*opal.Client, project, table string) error {
	_, err := c.fetchAll(ctx, cohorts, project, table)
	return err
}

// dictionary returns one cohort's dictionary for a table, from cache when
// fresh. Concurrent fetches of the same dictionary are deduplicated with
// singleflight.
func (c *Catalogue) dictionary(ctx context.Context, client *opal.Client, project, table string) ([]opal.VariableMeta, error) {
	key := cache.Key(client.Name(), project, table)

	if dict, ok := c.cache.Get(key); ok && !c.stale(key) {
		return dict, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		start := time.Now()

		dict, err := client.ListVariables(ctx, project, table)
		if err != nil {
			return nil, fmt.Errorf("fetching dictionary: %w", err)
		}

		c.cache.Put(key, dict)
		c.markSynced(key)
		c.indexDictionary(client.Name(), project, table, dict)

		slog.Debug("dictionary refreshed",
			slog.String("cohort", client.Name()),
			slog.String("table", project+"."+table),
			slog.Int("variables", len(dict)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return dict, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]opal.VariableMeta), nil
}

func (c *Catalogue) stale(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.syncedAt[key]
	if !ok {
		return true
	}
	return time.Since(at) > c.config.CatalogueStaleAge
}

func (c *Catalogue) markSynced(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncedAt[key] = time.Now()
}
