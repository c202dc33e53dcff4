package smartsearch

// Artifact is a stage output as generated by the service and as submitted
// (possibly edited) by the user. Submitted defaults to Generated.
type Artifact struct {
	Generated string `json:"generated"`
	Submitted string `json:"submitted"`
}

func newArtifact(generated string) Artifact {
	return Artifact{Generated: generated, Submitted: generated}
}

// State is a deep copy of a workflow for rendering. Results hold only what the
// session has actually reached; absent results are nil.
type State struct {
	SessionID       string              `json:"session_id,omitempty"`
	Stage           Stage               `json:"stage"`
	LastCompleted   PersistedStage      `json:"last_completed_step"`
	Question        string              `json:"question"`
	EvidenceSpec    Artifact            `json:"evidence_spec"`
	Keywords        Artifact            `json:"search_keywords"`
	Discriminator   Artifact            `json:"discriminator"`
	Strictness      Strictness          `json:"strictness"`
	Sources         []string            `json:"selected_sources"`
	History         []HistoryItem       `json:"keyword_history"`
	PendingFeatures []FeatureDefinition `json:"pending_features"`
	AppliedFeatures []FeatureDefinition `json:"applied_features"`
	Results         Results             `json:"results"`
	Error           string              `json:"error,omitempty"`
	Generation      uint64              `json:"generation"`
}

type Results struct {
	EvidenceSpec  *EvidenceSpecResponse  `json:"evidence_spec,omitempty"`
	Keywords      *KeywordsResult        `json:"keywords,omitempty"`
	Count         *CountResponse         `json:"count,omitempty"`
	Search        *SearchResults         `json:"search,omitempty"`
	Discriminator *DiscriminatorResponse `json:"discriminator,omitempty"`
	Filter        *FilterResults         `json:"filter,omitempty"`
	Extraction    *ExtractionResults     `json:"extraction,omitempty"`
}

func (c *ResultCache) snapshot() Results {
	var r Results
	if c.evidenceSpec != nil {
		v := *c.evidenceSpec
		r.EvidenceSpec = &v
	}
	if c.keywords != nil {
		v := *c.keywords
		v.Count = cloneCount(c.keywords.Count)
		r.Keywords = &v
	}
	r.Count = cloneCount(c.count)
	if c.search != nil {
		v := *c.search
		v.Articles = append([]Article{}, c.search.Articles...)
		v.SourcesSearched = cloneStrings(c.search.SourcesSearched)
		r.Search = &v
	}
	if c.discriminator != nil {
		v := *c.discriminator
		r.Discriminator = &v
	}
	if c.filter != nil {
		v := *c.filter
		v.Articles = cloneFiltered(c.filter.Articles)
		r.Filter = &v
	}
	if c.extraction != nil {
		r.Extraction = &ExtractionResults{
			Values:   cloneTable(c.extraction.Values),
			Metadata: cloneValues(c.extraction.Metadata),
		}
	}
	return r
}

func cloneCount(c *CountResponse) *CountResponse {
	if c == nil {
		return nil
	}
	v := *c
	v.SourcesSearched = cloneStrings(c.SourcesSearched)
	return &v
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneValues(values map[string]interface{}) map[string]interface{} {
	if values == nil {
		return nil
	}
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

func cloneTable(table map[string]map[string]interface{}) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(table))
	for id, row := range table {
		out[id] = cloneValues(row)
	}
	return out
}

func cloneFiltered(articles []FilteredArticle) []FilteredArticle {
	out := make([]FilteredArticle, len(articles))
	for i, a := range articles {
		out[i] = a
		out[i].Extracted = cloneValues(a.Extracted)
	}
	return out
}
