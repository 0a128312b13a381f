// Package cache provides caching utilities for remote catalogue metadata.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cohortware/fedsum/pkg/opal"
)

// DictionaryCache provides thread-safe LRU caching for per-cohort table
// dictionaries. Dictionaries change rarely but are consulted before every
// orchestration run, so caching saves one round trip per cohort per call.
type DictionaryCache struct {
	cache *lru.Cache[string, []opal.VariableMeta]
}

// NewDictionaryCache creates a new LRU cache holding at most maxItems
// dictionaries.
func NewDictionaryCache(maxItems int) (*DictionaryCache, error) {
	c, err := lru.New[string, []opal.VariableMeta](maxItems)
	if err != nil {
		return nil, err
	}
	return &DictionaryCache{cache: c}, nil
}

// Key builds the cache key for one cohort's view of a table.
func Key(cohort, project, table string) string {
	return cohort + "|" + project + "|" + table
}

// Get retrieves a dictionary from the cache.
func (c *DictionaryCache) Get(key string) ([]opal.VariableMeta, bool) {
	return c.cache.Get(key)
}

// Put adds or updates a dictionary in the cache.
func (c *DictionaryCache) Put(key string, vars []opal.VariableMeta) {
	c.cache.Add(key, vars)
}

// Invalidate drops a dictionary from the cache.
func (c *DictionaryCache) Invalidate(key string) {
	c.cache.Remove(key)
}

// Len returns the current number of cached dictionaries.
func (c *DictionaryCache) Len() int {
	return c.cache.Len()
}
