package smartsearch

// stageSet is a bitset over persisted stages, indexed by Rank.
type stageSet uint8

func (s stageSet) has(p PersistedStage) bool {
	r := p.Rank()
	return r >= 0 && s&(1<<uint(r)) != 0
}

func (s *stageSet) mark(p PersistedStage) {
	if r := p.Rank(); r >= 0 {
		*s |= 1 << uint(r)
	}
}

// upTo returns the set of every stage at or before p.
func upTo(p PersistedStage) stageSet {
	var s stageSet
	for _, stage := range persistedOrder {
		if !p.AtOrAfter(stage) {
			break
		}
		s.mark(stage)
	}
	return s
}

// SearchResults is the accumulated, paginated search result set.
type SearchResults struct {
	Articles        []Article  `json:"articles"`
	Pagination      Pagination `json:"pagination"`
	SourcesSearched []string   `json:"sources_searched,omitempty"`
}

// FilterResults is the outcome of the filtering pass.
type FilterResults struct {
	Articles             []FilteredArticle `json:"filtered_articles"`
	TotalRetrieved       int               `json:"total_retrieved"`
	TotalAvailable       int               `json:"total_available"`
	SearchLimitationNote string            `json:"search_limitation_note,omitempty"`
}

func (f *FilterResults) Accepted() int {
	n := 0
	for _, a := range f.Articles {
		if a.Passed {
			n++
		}
	}
	return n
}

// KeywordsResult merges the keyword generation response with the automatic
// count test. Count is nil when the count test failed.
type KeywordsResult struct {
	SearchKeywords string         `json:"search_keywords"`
	Count          *CountResponse `json:"count,omitempty"`
}

// ExtractionResults is the extracted-data table: article id -> feature id -> value.
type ExtractionResults struct {
	Values   map[string]map[string]interface{} `json:"values"`
	Metadata map[string]interface{}            `json:"metadata,omitempty"`
}

// ResultCache holds the last successful result per stage. A result may only be
// stored for a stage in the reached set, and shrinking the reached set drops
// every result owned by a later stage, so an object never exists for a stage
// the session did not complete.
type ResultCache struct {
	reached stageSet

	evidenceSpec  *EvidenceSpecResponse
	keywords      *KeywordsResult
	count         *CountResponse
	search        *SearchResults
	discriminator *DiscriminatorResponse
	filter        *FilterResults
	extraction    *ExtractionResults
}

func NewResultCache() *ResultCache {
	return &ResultCache{}
}

func (c *ResultCache) Reached(p PersistedStage) bool {
	return c.reached.has(p)
}

// Marker returns the furthest reached persisted stage.
func (c *ResultCache) Marker() PersistedStage {
	marker := PersistedQuestionInput
	for _, p := range persistedOrder {
		if c.reached.has(p) {
			marker = p
		}
	}
	return marker
}

// Reach marks p completed.
func (c *ResultCache) Reach(p PersistedStage) {
	c.reached.mark(p)
}

// ReachThrough marks every stage up to and including p completed.
func (c *ResultCache) ReachThrough(p PersistedStage) {
	c.reached |= upTo(p)
}

// TruncateTo forgets every stage after p and drops the results they own.
func (c *ResultCache) TruncateTo(p PersistedStage) {
	c.reached &= upTo(p)
	if !c.reached.has(PersistedEvidenceSpec) {
		c.evidenceSpec = nil
	}
	if !c.reached.has(PersistedKeywords) {
		c.keywords = nil
		c.count = nil
	}
	if !c.reached.has(PersistedSearchExecution) {
		c.search = nil
	}
	if !c.reached.has(PersistedDiscriminator) {
		c.discriminator = nil
	}
	if !c.reached.has(PersistedFiltering) {
		c.filter = nil
		c.extraction = nil
	}
}

func (c *ResultCache) SetEvidenceSpec(r *EvidenceSpecResponse) bool {
	if !c.reached.has(PersistedEvidenceSpec) {
		return false
	}
	c.evidenceSpec = r
	return true
}

func (c *ResultCache) SetKeywords(r *KeywordsResult) bool {
	if !c.reached.has(PersistedKeywords) {
		return false
	}
	c.keywords = r
	return true
}

// SetCount stores a count test result. Counts belong to the keyword stage.
func (c *ResultCache) SetCount(r *CountResponse) bool {
	if !c.reached.has(PersistedKeywords) {
		return false
	}
	c.count = r
	return true
}

func (c *ResultCache) SetSearch(r *SearchResults) bool {
	if !c.reached.has(PersistedSearchExecution) {
		return false
	}
	c.search = r
	return true
}

func (c *ResultCache) SetDiscriminator(r *DiscriminatorResponse) bool {
	if !c.reached.has(PersistedDiscriminator) {
		return false
	}
	c.discriminator = r
	return true
}

func (c *ResultCache) SetFilter(r *FilterResults) bool {
	if !c.reached.has(PersistedFiltering) {
		return false
	}
	c.filter = r
	return true
}

func (c *ResultCache) SetExtraction(r *ExtractionResults) bool {
	if !c.reached.has(PersistedFiltering) {
		return false
	}
	c.extraction = r
	return true
}

func (c *ResultCache) EvidenceSpec() *EvidenceSpecResponse   { return c.evidenceSpec }
func (c *ResultCache) Keywords() *KeywordsResult             { return c.keywords }
func (c *ResultCache) Count() *CountResponse                 { return c.count }
func (c *ResultCache) Search() *SearchResults                { return c.search }
func (c *ResultCache) Discriminator() *DiscriminatorResponse { return c.discriminator }
func (c *ResultCache) Filter() *FilterResults                { return c.filter }
func (c *ResultCache) Extraction() *ExtractionResults        { return c.extraction }

// purgeFeature removes one feature's values from the filtered articles and the
// extracted-data table.
func (c *ResultCache) purgeFeature(featureID string) {
	if c.filter != nil {
		for i := range c.filter.Articles {
			delete(c.filter.Articles[i].Extracted, featureID)
		}
	}
	if c.extraction != nil {
		for _, row := range c.extraction.Values {
			delete(row, featureID)
		}
	}
}
