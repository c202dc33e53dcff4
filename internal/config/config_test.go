package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsSmartSearchSettings(t *testing.T) {
	t.Setenv("SMART_SEARCH_GATEWAY_URL", "http://gateway:9000")
	t.Setenv("SMART_SEARCH_GATEWAY_TIMEOUT_SECONDS", "30")
	t.Setenv("SMART_SEARCH_DEFAULT_SOURCES", "pubmed, google_scholar,,")
	t.Setenv("SMART_SEARCH_WORKFLOW_TTL_MINUTES", "not-a-number")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, "http://gateway:9000", cfg.SmartSearch.GatewayURL)
	assert.Equal(t, 30*time.Second, cfg.SmartSearch.GatewayTimeout)
	assert.Equal(t, []string{"pubmed", "google_scholar"}, cfg.SmartSearch.DefaultSources)
	assert.Equal(t, 120*time.Minute, cfg.SmartSearch.WorkflowTTL)
	assert.True(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsListFallback(t *testing.T) {
	t.Setenv("SOME_LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsList("SOME_LIST", []string{"x"}))
}
