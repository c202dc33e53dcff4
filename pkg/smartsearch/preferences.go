package smartsearch

import (
	"context"
	"strings"
	"sync"
)

type Strictness string

const (
	StrictnessLow    Strictness = "low"
	StrictnessMedium Strictness = "medium"
	StrictnessHigh   Strictness = "high"
)

func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case StrictnessLow:
		return StrictnessLow, nil
	case StrictnessMedium:
		return StrictnessMedium, nil
	case StrictnessHigh:
		return StrictnessHigh, nil
	}
	return "", validationErr("strictness", "must be one of low, medium, high")
}

// Search sources understood by the remote service.
const (
	SourcePubMed        = "pubmed"
	SourceGoogleScholar = "google_scholar"
)

const (
	// Scholar is slower and rate limited, so it pages in smaller batches.
	scholarPageSize = 20
	defaultPageSize = 50

	// OptimizeTargetMaxResults is the result ceiling handed to keyword optimization.
	OptimizeTargetMaxResults = 250
)

var DefaultSources = []string{SourcePubMed}

// ValidateSources checks that sources is non-empty and only names known sources.
func ValidateSources(sources []string) error {
	if len(sources) == 0 {
		return validationErr("sources", "at least one source is required")
	}
	for _, s := range sources {
		if s != SourcePubMed && s != SourceGoogleScholar {
			return validationErr("sources", "unknown source "+s)
		}
	}
	return nil
}

// DefaultPageSize picks the search batch size for a source selection.
func DefaultPageSize(sources []string) int {
	for _, s := range sources {
		if s == SourceGoogleScholar {
			return scholarPageSize
		}
	}
	return defaultPageSize
}

// SourceStore loads and saves the selected search sources. It is read once
// when a workflow is created and written on every change.
type SourceStore interface {
	LoadSources(ctx context.Context) ([]string, error)
	SaveSources(ctx context.Context, sources []string) error
}

// MemorySourceStore is a process-local SourceStore, last writer wins.
type MemorySourceStore struct {
	mu      sync.RWMutex
	sources []string
}

func NewMemorySourceStore(initial ...string) *MemorySourceStore {
	return &MemorySourceStore{sources: append([]string(nil), initial...)}
}

func (s *MemorySourceStore) LoadSources(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.sources...), nil
}

func (s *MemorySourceStore) SaveSources(_ context.Context, sources []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append([]string(nil), sources...)
	return nil
}
