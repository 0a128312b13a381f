package catalogue

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cohortware/fedsum/pkg/opal"
)

// SearchHit is one harmonized variable matched by a catalogue search, with
// the cohorts whose dictionaries carry it.
type SearchHit struct {
	Variable  string   `json:"variable"`
	Project   string   `json:"project"`
	Table     string   `json:"table"`
	ValueType string   `json:"value_type"`
	Label     string   `json:"label,omitempty"`
	Cohorts   []string `json:"cohorts"`
}

// indexDictionary adds one cohort's dictionary entries to the search index.
// Already-indexed entries are left untouched.
func (c *Catalogue) indexDictionary(cohort, project, table string, dict []opal.VariableMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, meta := range dict {
		key := cohort + "|" + project + "|" + table + "|" + meta.Name
		if _, exists := c.docKey[key]; exists {
			continue
		}

		docID := c.nextDocID
		c.nextDocID++
		c.docKey[key] = docID
		c.docs = append(c.docs, &VariableDoc{
			DocID:   docID,
			Cohort:  cohort,
			Project: project,
			Table:   table,
			Meta:    meta,
		})

		c.addToBitmap(c.idxCohort, cohort, docID)
		for _, token := range tokenize(meta.Name) {
			c.addToBitmap(c.idxToken, token, docID)
		}
		for _, token := range tokenize(meta.Label) {
			c.addToBitmap(c.idxToken, token, docID)
		}
	}
}

// addToBitmap adds a docID to a string-keyed bitmap index.
func (c *Catalogue) addToBitmap(index map[string]*roaring.Bitmap, key string, docID uint32) {
	bm, exists := index[key]
	if !exists {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(docID)
}

// tokenize lowercases and splits a string on non-alphanumeric runes.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// Search finds variables whose name or label contains every token of the
// query, returning up to limit hits grouped across cohorts.
func (c *Catalogue) Search(query string, limit int) []SearchHit {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched *roaring.Bitmap
	for _, token := range tokens {
		bm := c.idxToken[token]
		if bm == nil {
			return nil
		}
		if matched == nil {
			matched = bm.Clone()
		} else {
			matched.And(bm)
		}
	}
	if matched == nil || matched.IsEmpty() {
		return nil
	}

	// Group hits across cohorts: the same harmonized variable appears once
	// with the list of cohorts providing it.
	type groupKey struct{ project, table, variable string }
	groups := make(map[groupKey]*SearchHit)
	var order []groupKey

	it := matched.Iterator()
	for it.HasNext() {
		doc := c.docs[it.Next()]
		key := groupKey{doc.Project, doc.Table, doc.Meta.Name}
		hit, ok := groups[key]
		if !ok {
			hit = &SearchHit{
				Variable:  doc.Meta.Name,
				Project:   doc.Project,
				Table:     doc.Table,
				ValueType: doc.Meta.ValueType,
				Label:     doc.Meta.Label,
			}
			groups[key] = hit
			order = append(order, key)
		}
		hit.Cohorts = append(hit.Cohorts, doc.Cohort)
	}

	// Concurrent dictionary fetches make docID order nondeterministic
	// across cohorts, so normalize before returning.
	for _, hit := range groups {
		sort.Strings(hit.Cohorts)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].variable != order[j].variable {
			return order[i].variable < order[j].variable
		}
		if order[i].project != order[j].project {
			return order[i].project < order[j].project
		}
		return order[i].table < order[j].table
	})

	if limit <= 0 || limit > len(order) {
		limit = len(order)
	}
	hits := make([]SearchHit, 0, limit)
	for _, key := range order[:limit] {
		hits = append(hits, *groups[key])
	}
	return hits
}

// CohortsIndexed returns the number of dictionary entries indexed for a
// cohort.
func (c *Catalogue) CohortsIndexed(cohort string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bm := c.idxCohort[cohort]
	if bm == nil {
		return 0
	}
	return int(bm.GetCardinality())
}
