package catalogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortware/fedsum/pkg/opal"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"body", "mass", "index"}, tokenize("Body mass index"))
	assert.Equal(t, []string{"agebirth", "m", "y"}, tokenize("agebirth_m_y"))
	assert.Empty(t, tokenize("  ---  "))
}

func TestSearch(t *testing.T) {
	dictA := []opal.VariableMeta{
		{Name: "bmi", ValueType: "decimal", Label: "Body mass index"},
		{Name: "agebirth_m_y", ValueType: "integer", Label: "Maternal age at birth in years"},
	}
	dictB := []opal.VariableMeta{
		{Name: "bmi", ValueType: "decimal", Label: "Body mass index"},
	}

	a := opal.New("alspac", dictServer(t, dictA, nil).URL)
	b := opal.New("ninfea", dictServer(t, dictB, nil).URL)
	cat := newTestCatalogue(t, a, b)

	// Populate the index through a resolve.
	_, _, err := cat.Resolve(context.Background(),
		[]*opal.Client{a, b}, "lifecycle", "core", []string{"bmi"})
	require.NoError(t, err)

	hits := cat.Search("body mass", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "bmi", hits[0].Variable)
	assert.Equal(t, "lifecycle", hits[0].Project)
	assert.Equal(t, []string{"alspac", "ninfea"}, hits[0].Cohorts)

	// Label token present in only one cohort's dictionary.
	hits = cat.Search("maternal age", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "agebirth_m_y", hits[0].Variable)
	assert.Equal(t, []string{"alspac"}, hits[0].Cohorts)

	// All tokens must match.
	assert.Empty(t, cat.Search("body mass nonsense", 10))
	assert.Empty(t, cat.Search("", 10))
}

func TestSearchLimit(t *testing.T) {
	dict := []opal.VariableMeta{
		{Name: "bmi_m", Label: "Maternal BMI"},
		{Name: "bmi_c", Label: "Child BMI"},
	}
	a := opal.New("alspac", dictServer(t, dict, nil).URL)
	cat := newTestCatalogue(t, a)

	_, _, err := cat.Resolve(context.Background(),
		[]*opal.Client{a}, "lifecycle", "core", []string{"bmi_m"})
	require.NoError(t, err)

	hits := cat.Search("bmi", 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "bmi_c", hits[0].Variable, "hits are sorted by variable name")

	assert.Equal(t, 2, cat.CohortsIndexed("alspac"))
}
