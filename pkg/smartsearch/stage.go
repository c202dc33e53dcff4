package smartsearch

import "fmt"

// Stage is the local navigation stage of a workflow. Values are ordered.
type Stage int

const (
	StageQuery Stage = iota
	StageRefinement
	StageSearchQuery
	StageSearching // transient, never persisted
	StageSearchResults
	StageDiscriminator
	StageFiltering // transient, never persisted
	StageResults
)

var stageNames = [...]string{
	StageQuery:         "query",
	StageRefinement:    "refinement",
	StageSearchQuery:   "search-query",
	StageSearching:     "searching",
	StageSearchResults: "search-results",
	StageDiscriminator: "discriminator",
	StageFiltering:     "filtering",
	StageResults:       "results",
}

func (s Stage) String() string {
	if s < StageQuery || s > StageResults {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Transient reports whether the stage only exists while a remote call is in flight.
func (s Stage) Transient() bool {
	return s == StageSearching || s == StageFiltering
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStage converts a local stage name back into a Stage.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return StageQuery, fmt.Errorf("unknown stage %q", name)
}

// PersistedStage is the "last completed step" marker recorded by the remote service.
type PersistedStage string

const (
	PersistedQuestionInput   PersistedStage = "question_input"
	PersistedEvidenceSpec    PersistedStage = "evidence_specification"
	PersistedKeywords        PersistedStage = "generate_keywords"
	PersistedSearchExecution PersistedStage = "search_execution"
	PersistedDiscriminator   PersistedStage = "generate_discriminator"
	PersistedFiltering       PersistedStage = "filtering"
)

// persistedOrder lists persisted stages ascending. Rank is the index.
var persistedOrder = []PersistedStage{
	PersistedQuestionInput,
	PersistedEvidenceSpec,
	PersistedKeywords,
	PersistedSearchExecution,
	PersistedDiscriminator,
	PersistedFiltering,
}

// Rank returns the position of the stage in the pipeline, or -1 when unknown.
func (p PersistedStage) Rank() int {
	for i, s := range persistedOrder {
		if s == p {
			return i
		}
	}
	return -1
}

func (p PersistedStage) Valid() bool {
	return p.Rank() >= 0
}

// AtOrAfter reports whether p has reached other. Unknown markers reach nothing.
func (p PersistedStage) AtOrAfter(other PersistedStage) bool {
	r := p.Rank()
	return r >= 0 && r >= other.Rank()
}

// ParsePersistedStage validates a marker string coming off the wire.
func ParsePersistedStage(name string) (PersistedStage, error) {
	p := PersistedStage(name)
	if !p.Valid() {
		return "", fmt.Errorf("unknown persisted stage %q", name)
	}
	return p, nil
}

// The two tables below are the only place the local and persisted naming
// spaces meet. Both directions are total and order-preserving.

var localForPersisted = map[PersistedStage]Stage{
	PersistedQuestionInput:   StageQuery,
	PersistedEvidenceSpec:    StageRefinement,
	PersistedKeywords:        StageSearchQuery,
	PersistedSearchExecution: StageSearchResults,
	PersistedDiscriminator:   StageDiscriminator,
	PersistedFiltering:       StageResults,
}

var persistedForLocal = [...]PersistedStage{
	StageQuery:         PersistedQuestionInput,
	StageRefinement:    PersistedEvidenceSpec,
	StageSearchQuery:   PersistedKeywords,
	StageSearching:     PersistedKeywords,
	StageSearchResults: PersistedSearchExecution,
	StageDiscriminator: PersistedDiscriminator,
	StageFiltering:     PersistedDiscriminator,
	StageResults:       PersistedFiltering,
}

// LocalStage maps a completed marker to the local stage a user lands on.
// Unknown markers map to StageQuery.
func LocalStage(p PersistedStage) Stage {
	if s, ok := localForPersisted[p]; ok {
		return s
	}
	return StageQuery
}

// PersistedStageOf returns the completion marker implied by sitting at local stage s.
func PersistedStageOf(s Stage) PersistedStage {
	if s < StageQuery || s > StageResults {
		return PersistedQuestionInput
	}
	return persistedForLocal[s]
}

// ResolveLocalStage applies the mapping plus the two reconstruction overrides:
// a search_execution marker without search metadata means the search never
// finished, and a filtering marker without an acceptance count means the
// filtering pass is still in progress.
func ResolveLocalStage(p PersistedStage, hasSearchMetadata, hasAcceptedCount bool) Stage {
	switch {
	case p == PersistedSearchExecution && !hasSearchMetadata:
		return StageSearchQuery
	case p == PersistedFiltering && !hasAcceptedCount:
		return StageFiltering
	}
	return LocalStage(p)
}
