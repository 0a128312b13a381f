// Package catalogue maintains a client-side view of the cohorts' remote
// data dictionaries: validation of requested variables before any remote
// computation, and token search over the combined catalogue.
package catalogue

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/singleflight"

	"github.com/cohortware/fedsum/internal/cache"
	"github.com/cohortware/fedsum/internal/config"
	"github.com/cohortware/fedsum/pkg/opal"
	"github.com/cohortware/fedsum/pkg/types"
)

// VariableDoc is one cohort's dictionary entry for one variable, as held in
// the search index.
type VariableDoc struct {
	DocID   uint32
	Cohort  string
	Project string
	Table   string
	Meta    opal.VariableMeta
}

// Catalogue is the combined client-side catalogue across all cohorts.
type Catalogue struct {
	mu sync.RWMutex

	cohorts []*opal.Client
	cache   *cache.DictionaryCache
	config  *config.Config

	// Search index over dictionary entries (Roaring bitmaps).
	docs      []*VariableDoc
	docKey    map[string]uint32
	nextDocID uint32
	idxToken  map[string]*roaring.Bitmap
	idxCohort map[string]*roaring.Bitmap

	// Per-dictionary fetch state.
	sf       singleflight.Group
	syncedAt map[string]time.Time
}

// New creates a catalogue over the given cohort clients.
func New(cohorts []*opal.Client, dc *cache.DictionaryCache, cfg *config.Config) *Catalogue {
	return &Catalogue{
		cohorts:   cohorts,
		cache:     dc,
		config:    cfg,
		docKey:    make(map[string]uint32),
		idxToken:  make(map[string]*roaring.Bitmap),
		idxCohort: make(map[string]*roaring.Bitmap),
		syncedAt:  make(map[string]time.Time),
	}
}

// Cohorts returns the configured cohort clients, optionally restricted to
// the named subset. Unknown names are an error.
func (c *Catalogue) Cohorts(names []string) ([]*opal.Client, error) {
	if len(names) == 0 {
		return c.cohorts, nil
	}
	byName := make(map[string]*opal.Client, len(c.cohorts))
	for _, client := range c.cohorts {
		byName[client.Name()] = client
	}
	selected := make([]*opal.Client, 0, len(names))
	for _, name := range names {
		client, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown cohort %q", name)
		}
		selected = append(selected, client)
	}
	return selected, nil
}

// ResolvedVariable is the harmonized view of one requested variable across
// the cohorts that provide it.
type ResolvedVariable struct {
	Name   string
	Class  string
	Levels []string
	// Cohorts lists the cohort names providing the variable, in the order
	// the cohorts were configured.
	Cohorts []string
}

// Resolve validates the requested variables against every cohort's remote
// dictionary and determines each variable's class.
//
// A variable absent from some cohorts yields a warning and those cohorts
// are skipped for it; a variable absent from every cohort is an error, as
// is a class that differs between cohorts.
func (c *Catalogue) Resolve(ctx context.Context, cohorts []*opal.Client, project, table string, variables []string) (map[string]ResolvedVariable, []string, error) {
	if project == "" || table == "" {
		return nil, nil, fmt.Errorf("project and table are required")
	}
	if len(variables) == 0 {
		return nil, nil, fmt.Errorf("at least one variable is required")
	}
	if len(cohorts) == 0 {
		return nil, nil, fmt.Errorf("no cohorts configured")
	}

	dicts, err := c.fetchAll(ctx, cohorts, project, table)
	if err != nil {
		return nil, nil, err
	}

	resolved := make(map[string]ResolvedVariable, len(variables))
	var warnings []string

	for _, name := range variables {
		var catCohorts, contCohorts []string
		levels := map[string]bool{}

		for _, client := range cohorts {
			meta, ok := findVariable(dicts[client.Name()], name)
			if !ok {
				warnings = append(warnings,
					fmt.Sprintf("variable %q is not in the dictionary of cohort %s; cohort skipped", name, client.Name()))
				continue
			}
			if meta.IsCategorical() {
				catCohorts = append(catCohorts, client.Name())
				for _, cat := range meta.Categories {
					levels[cat.Name] = true
				}
			} else {
				contCohorts = append(contCohorts, client.Name())
			}
		}

		if len(catCohorts) == 0 && len(contCohorts) == 0 {
			return nil, nil, fmt.Errorf("no cohort provides variable %q in %s.%s", name, project, table)
		}
		if len(catCohorts) > 0 && len(contCohorts) > 0 {
			return nil, nil, fmt.Errorf(
				"variable %q has mismatched classes across cohorts: categorical in %s, continuous in %s",
				name, strings.Join(catCohorts, ","), strings.Join(contCohorts, ","))
		}

		rv := ResolvedVariable{Name: name}
		if len(catCohorts) > 0 {
			rv.Class = types.ClassCategorical
			rv.Cohorts = catCohorts
			rv.Levels = sortedKeys(levels)
		} else {
			rv.Class = types.ClassContinuous
			rv.Cohorts = contCohorts
		}
		resolved[name] = rv
	}

	return resolved, warnings, nil
}

func findVariable(dict []opal.VariableMeta, name string) (opal.VariableMeta, bool) {
	for _, v := range dict {
		if v.Name == name {
			return v, true
		}
	}
	return opal.VariableMeta{}, false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
