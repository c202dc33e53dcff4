package smartsearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageMappingIsTotalAndOrderPreserving(t *testing.T) {
	prev := -1
	for _, p := range persistedOrder {
		local := LocalStage(p)
		assert.Greater(t, int(local), prev, "mapping of %s must be ascending", p)
		prev = int(local)
		assert.Equal(t, p, PersistedStageOf(local), "round trip of %s", p)
	}

	for s := StageQuery; s <= StageResults; s++ {
		assert.True(t, PersistedStageOf(s).Valid(), s.String())
	}
}

func TestResolveLocalStage(t *testing.T) {
	tests := []struct {
		name        string
		marker      PersistedStage
		hasMetadata bool
		hasAccepted bool
		want        Stage
	}{
		{"search without metadata", PersistedSearchExecution, false, false, StageSearchQuery},
		{"search with metadata", PersistedSearchExecution, true, false, StageSearchResults},
		{"filtering in progress", PersistedFiltering, true, false, StageFiltering},
		{"filtering done", PersistedFiltering, true, true, StageResults},
		{"keywords", PersistedKeywords, false, false, StageSearchQuery},
		{"unknown", PersistedStage("bogus"), true, true, StageQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLocalStage(tt.marker, tt.hasMetadata, tt.hasAccepted))
		})
	}
}

func TestPersistedStageOrdering(t *testing.T) {
	assert.True(t, PersistedFiltering.AtOrAfter(PersistedKeywords))
	assert.True(t, PersistedKeywords.AtOrAfter(PersistedKeywords))
	assert.False(t, PersistedEvidenceSpec.AtOrAfter(PersistedKeywords))
	assert.False(t, PersistedStage("bogus").AtOrAfter(PersistedQuestionInput))

	_, err := ParsePersistedStage("bogus")
	assert.Error(t, err)
	p, err := ParsePersistedStage("generate_discriminator")
	require.NoError(t, err)
	assert.Equal(t, PersistedDiscriminator, p)
}

func TestStageTextEncoding(t *testing.T) {
	b, err := json.Marshal(struct {
		Stage Stage `json:"stage"`
	}{StageSearchResults})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"search-results"}`, string(b))

	var s Stage
	require.NoError(t, s.UnmarshalText([]byte("discriminator")))
	assert.Equal(t, StageDiscriminator, s)
	assert.Error(t, s.UnmarshalText([]byte("nowhere")))

	assert.True(t, StageSearching.Transient())
	assert.True(t, StageFiltering.Transient())
	assert.False(t, StageResults.Transient())
}
