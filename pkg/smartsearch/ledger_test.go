package smartsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerUniqueness(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Append(HistoryItem{Query: "a", Count: 1}))
	require.NoError(t, l.Append(HistoryItem{Query: "A", Count: 2}), "match is exact, not case-folded")

	err := l.Append(HistoryItem{Query: "a", Count: 3})
	assert.True(t, IsDuplicateQuery(err))
	assert.Equal(t, 2, l.Len())

	dropped := l.Replace([]HistoryItem{{Query: "x"}, {Query: "y"}, {Query: "x"}})
	assert.Equal(t, []string{"x"}, dropped)
	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "x", items[0].Query)
	assert.Equal(t, "y", items[1].Query)
	assert.False(t, l.Contains("a"))

	items[0].Query = "mutated"
	assert.Equal(t, "x", l.Items()[0].Query, "Items returns a copy")
}

func TestFeatureValidation(t *testing.T) {
	tests := []struct {
		name    string
		feature FeatureDefinition
		wantErr bool
	}{
		{"text", FeatureDefinition{Name: "n", Description: "d", Type: FeatureText}, false},
		{"score with options", FeatureDefinition{Name: "n", Description: "d", Type: FeatureScore, Options: &ScoreOptions{Min: 0, Max: 10, Step: 1}}, false},
		{"score without options", FeatureDefinition{Name: "n", Description: "d", Type: FeatureScore}, false},
		{"missing name", FeatureDefinition{Description: "d", Type: FeatureText}, true},
		{"missing description", FeatureDefinition{Name: "n", Type: FeatureText}, true},
		{"unknown type", FeatureDefinition{Name: "n", Description: "d", Type: "list"}, true},
		{"options on boolean", FeatureDefinition{Name: "n", Description: "d", Type: FeatureBoolean, Options: &ScoreOptions{Max: 1}}, true},
		{"inverted range", FeatureDefinition{Name: "n", Description: "d", Type: FeatureScore, Options: &ScoreOptions{Min: 5, Max: 1}}, true},
		{"negative step", FeatureDefinition{Name: "n", Description: "d", Type: FeatureScore, Options: &ScoreOptions{Min: 0, Max: 1, Step: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFeatureLedger().AddPending(tt.feature)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFeatureLedgerSetsStayDisjoint(t *testing.T) {
	l := NewFeatureLedger()
	f, err := l.AddPending(FeatureDefinition{ID: "f", Name: "n", Description: "d", Type: FeatureText})
	require.NoError(t, err)

	_, err = l.AddPending(f)
	assert.True(t, IsValidation(err), "duplicate pending id")

	assert.Equal(t, map[string]bool{"f": true}, l.Apply([]FeatureDefinition{f}))
	assert.Empty(t, l.Pending())
	require.Len(t, l.Applied(), 1)

	_, err = l.AddPending(f)
	assert.True(t, IsValidation(err), "id already applied")

	assert.True(t, l.RemoveApplied("f"))
	assert.Empty(t, l.Applied())
}

func TestResultCacheRefusesUnreachedStages(t *testing.T) {
	c := NewResultCache()
	assert.False(t, c.SetSearch(&SearchResults{}))
	assert.Nil(t, c.Search())

	c.ReachThrough(PersistedSearchExecution)
	assert.True(t, c.SetKeywords(&KeywordsResult{SearchKeywords: "k"}))
	assert.True(t, c.SetSearch(&SearchResults{}))
	assert.False(t, c.SetFilter(&FilterResults{}))
	assert.Equal(t, PersistedSearchExecution, c.Marker())

	c.TruncateTo(PersistedEvidenceSpec)
	assert.Nil(t, c.Keywords())
	assert.Nil(t, c.Search())
	assert.False(t, c.Reached(PersistedKeywords))
	assert.True(t, c.Reached(PersistedEvidenceSpec))
	assert.Equal(t, PersistedEvidenceSpec, c.Marker())
}
