package smartsearch

import "context"

// Gateway is the remote AI-generation and persistence service. Every method is
// one network round trip; implementations return the service's own error
// message so it can be surfaced verbatim.
type Gateway interface {
	CreateEvidenceSpec(ctx context.Context, req EvidenceSpecRequest) (*EvidenceSpecResponse, error)
	GenerateKeywords(ctx context.Context, req KeywordsRequest) (*KeywordsResponse, error)
	TestKeywordCount(ctx context.Context, req CountRequest) (*CountResponse, error)
	OptimizeKeywords(ctx context.Context, req OptimizeRequest) (*OptimizeResponse, error)
	ExecuteSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	GenerateDiscriminator(ctx context.Context, req DiscriminatorRequest) (*DiscriminatorResponse, error)
	FilterArticles(ctx context.Context, req FilterRequest) (*FilterResponse, error)
	ExtractFeatures(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)
	GetSession(ctx context.Context, sessionID string) (*PersistedSession, error)
	ResetSession(ctx context.Context, sessionID string, target PersistedStage) (*PersistedSession, error)
	UpdateKeywordHistory(ctx context.Context, sessionID string, items []HistoryItem) error
}

type EvidenceSpecRequest struct {
	Question  string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type EvidenceSpecResponse struct {
	EvidenceSpecification string `json:"evidence_specification"`
	SessionID             string `json:"session_id"`
}

type KeywordsRequest struct {
	EvidenceSpecification string   `json:"evidence_specification"`
	SessionID             string   `json:"session_id"`
	Sources               []string `json:"selected_sources"`
}

type KeywordsResponse struct {
	SearchKeywords string `json:"search_keywords"`
	SessionID      string `json:"session_id,omitempty"`
}

type CountRequest struct {
	Keywords  string   `json:"search_keywords"`
	SessionID string   `json:"session_id"`
	Sources   []string `json:"selected_sources"`
}

type CountResponse struct {
	TotalCount      int      `json:"total_count"`
	SourcesSearched []string `json:"sources_searched"`
}

type OptimizeRequest struct {
	CurrentKeywords       string   `json:"current_keywords"`
	EvidenceSpecification string   `json:"evidence_specification"`
	TargetMaxResults      int      `json:"target_max_results"`
	SessionID             string   `json:"session_id"`
	Sources               []string `json:"selected_sources"`
}

// OptimizeResponse leaves FinalKeywords nil when the service could not produce one.
type OptimizeResponse struct {
	InitialKeywords   string  `json:"initial_keywords,omitempty"`
	InitialCount      int     `json:"initial_count,omitempty"`
	FinalKeywords     *string `json:"final_keywords"`
	FinalCount        int     `json:"final_count"`
	RefinementApplied string  `json:"refinement_applied"`
}

type SearchRequest struct {
	Keywords   string   `json:"search_keywords"`
	MaxResults int      `json:"max_results"`
	Offset     int      `json:"offset"`
	SessionID  string   `json:"session_id"`
	Sources    []string `json:"selected_sources"`
}

type SearchResponse struct {
	Articles        []Article  `json:"articles"`
	Pagination      Pagination `json:"pagination"`
	SourcesSearched []string   `json:"sources_searched"`
}

type Pagination struct {
	TotalAvailable int  `json:"total_available"`
	Returned       int  `json:"returned"`
	Offset         int  `json:"offset"`
	HasMore        bool `json:"has_more"`
}

// Article is a bibliographic reference as returned by a search source.
type Article struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Year     *int     `json:"year,omitempty"`
	URL      string   `json:"url,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	Source   string   `json:"source,omitempty"`
}

type DiscriminatorRequest struct {
	EvidenceSpecification string     `json:"evidence_specification"`
	Keywords              string     `json:"search_keywords"`
	Strictness            Strictness `json:"strictness"`
	SessionID             string     `json:"session_id"`
}

type DiscriminatorResponse struct {
	DiscriminatorPrompt string `json:"discriminator_prompt"`
}

type FilterRequest struct {
	EvidenceSpecification string     `json:"evidence_specification"`
	Keywords              string     `json:"search_keywords"`
	DiscriminatorPrompt   string     `json:"discriminator_prompt"`
	Strictness            Strictness `json:"strictness"`
	SessionID             string     `json:"session_id"`
	Sources               []string   `json:"selected_sources"`
	MaxResults            int        `json:"max_results"`
}

type FilterResponse struct {
	FilteredArticles     []FilteredArticle `json:"filtered_articles"`
	TotalRetrieved       int               `json:"total_retrieved"`
	SearchLimitationNote string            `json:"search_limitation_note,omitempty"`
}

// FilteredArticle is an article with its filtering outcome and, after
// extraction, the extracted value per feature id.
type FilteredArticle struct {
	Article    Article                `json:"article"`
	Passed     bool                   `json:"passed"`
	Confidence float64                `json:"confidence,omitempty"`
	Reasoning  string                 `json:"reasoning,omitempty"`
	Extracted  map[string]interface{} `json:"extracted_features,omitempty"`
}

type ExtractRequest struct {
	SessionID string              `json:"session_id"`
	Features  []FeatureDefinition `json:"features"`
}

type ExtractResponse struct {
	// Results maps article id -> feature id -> value.
	Results  map[string]map[string]interface{} `json:"results"`
	Metadata map[string]interface{}            `json:"extraction_metadata,omitempty"`
}

// PersistedSession is the durable session record owned by the remote service.
type PersistedSession struct {
	ID                      string             `json:"id"`
	OriginalQuestion        string             `json:"original_question"`
	GeneratedEvidenceSpec   string             `json:"generated_evidence_spec,omitempty"`
	SubmittedEvidenceSpec   string             `json:"submitted_evidence_spec,omitempty"`
	GeneratedSearchKeywords string             `json:"generated_search_keywords,omitempty"`
	SubmittedSearchKeywords string             `json:"submitted_search_keywords,omitempty"`
	GeneratedDiscriminator  string             `json:"generated_discriminator,omitempty"`
	SubmittedDiscriminator  string             `json:"submitted_discriminator,omitempty"`
	FilterStrictness        string             `json:"filter_strictness,omitempty"`
	LastCompletedStep       string             `json:"last_completed_step"`
	SearchMetadata          *SearchMetadata    `json:"search_metadata,omitempty"`
	FilteringMetadata       *FilteringMetadata `json:"filtering_metadata,omitempty"`
	FilteredArticles        []FilteredArticle  `json:"filtered_articles,omitempty"`
}

type SearchMetadata struct {
	TotalAvailable  int                    `json:"total_available"`
	TotalRetrieved  int                    `json:"total_retrieved"`
	SourcesSearched []string               `json:"sources_searched,omitempty"`
	KeywordHistory  []PersistedHistoryItem `json:"keyword_history,omitempty"`
}

// PersistedHistoryItem carries its timestamp as RFC3339 text.
type PersistedHistoryItem struct {
	Query             string `json:"query"`
	Count             int    `json:"count"`
	ChangeType        string `json:"change_type"`
	RefinementDetails string `json:"refinement_details,omitempty"`
	Timestamp         string `json:"timestamp"`
}

type FilteringMetadata struct {
	Accepted      *int                `json:"accepted,omitempty"`
	Rejected      int                 `json:"rejected"`
	CustomColumns []FeatureDefinition `json:"custom_columns,omitempty"`
}
