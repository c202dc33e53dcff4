package main

import (
	"os"
	"path/filepath"
	"testing"

	"literature-search-be/pkg/smartsearch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatures(t *testing.T) {
	raw := []byte(`
features:
  - name: Sample size
    description: Number of enrolled participants
    type: score
    options: {min: 0, max: 100, step: 1}
  - name: Design
    description: Study design in a few words
`)
	got, err := parseFeatures(raw)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, smartsearch.FeatureScore, got[0].Type)
	require.NotNil(t, got[0].Options)
	assert.Equal(t, 100.0, got[0].Options.Max)
	assert.Equal(t, smartsearch.FeatureText, got[1].Type, "type defaults to text")
	assert.Nil(t, got[1].Options)
}

func TestLoadFeaturesErrors(t *testing.T) {
	_, err := loadFeatures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("features: [unclosed"), 0o600))
	_, err = loadFeatures(path)
	assert.Error(t, err)
}
