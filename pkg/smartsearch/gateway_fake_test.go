package smartsearch

import (
	"context"
	"sync"
)

// fakeGateway answers every call from a function field. Unset fields fall
// back to canned answers that keep the happy path moving.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	createEvidenceSpec    func(EvidenceSpecRequest) (*EvidenceSpecResponse, error)
	generateKeywords      func(KeywordsRequest) (*KeywordsResponse, error)
	testKeywordCount      func(CountRequest) (*CountResponse, error)
	optimizeKeywords      func(OptimizeRequest) (*OptimizeResponse, error)
	executeSearch         func(SearchRequest) (*SearchResponse, error)
	generateDiscriminator func(DiscriminatorRequest) (*DiscriminatorResponse, error)
	filterArticles        func(FilterRequest) (*FilterResponse, error)
	extractFeatures       func(ExtractRequest) (*ExtractResponse, error)
	getSession            func(string) (*PersistedSession, error)
	resetSession          func(string, PersistedStage) (*PersistedSession, error)
	updateKeywordHistory  func(string, []HistoryItem) error
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeGateway) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeGateway) CreateEvidenceSpec(_ context.Context, req EvidenceSpecRequest) (*EvidenceSpecResponse, error) {
	f.record("CreateEvidenceSpec")
	if f.createEvidenceSpec != nil {
		return f.createEvidenceSpec(req)
	}
	return &EvidenceSpecResponse{EvidenceSpecification: "spec for " + req.Question, SessionID: "s1"}, nil
}

func (f *fakeGateway) GenerateKeywords(_ context.Context, req KeywordsRequest) (*KeywordsResponse, error) {
	f.record("GenerateKeywords")
	if f.generateKeywords != nil {
		return f.generateKeywords(req)
	}
	return &KeywordsResponse{SearchKeywords: "generated keywords"}, nil
}

func (f *fakeGateway) TestKeywordCount(_ context.Context, req CountRequest) (*CountResponse, error) {
	f.record("TestKeywordCount")
	if f.testKeywordCount != nil {
		return f.testKeywordCount(req)
	}
	return &CountResponse{TotalCount: 100, SourcesSearched: req.Sources}, nil
}

func (f *fakeGateway) OptimizeKeywords(_ context.Context, req OptimizeRequest) (*OptimizeResponse, error) {
	f.record("OptimizeKeywords")
	if f.optimizeKeywords != nil {
		return f.optimizeKeywords(req)
	}
	final := req.CurrentKeywords + " AND optimized"
	return &OptimizeResponse{FinalKeywords: &final, FinalCount: 50, RefinementApplied: "narrowed"}, nil
}

func (f *fakeGateway) ExecuteSearch(_ context.Context, req SearchRequest) (*SearchResponse, error) {
	f.record("ExecuteSearch")
	if f.executeSearch != nil {
		return f.executeSearch(req)
	}
	return &SearchResponse{
		Articles:   []Article{{ID: "a1", Title: "First"}, {ID: "a2", Title: "Second"}},
		Pagination: Pagination{TotalAvailable: 2, Returned: 2, Offset: req.Offset},
	}, nil
}

func (f *fakeGateway) GenerateDiscriminator(_ context.Context, req DiscriminatorRequest) (*DiscriminatorResponse, error) {
	f.record("GenerateDiscriminator")
	if f.generateDiscriminator != nil {
		return f.generateDiscriminator(req)
	}
	return &DiscriminatorResponse{DiscriminatorPrompt: "is it relevant?"}, nil
}

func (f *fakeGateway) FilterArticles(_ context.Context, req FilterRequest) (*FilterResponse, error) {
	f.record("FilterArticles")
	if f.filterArticles != nil {
		return f.filterArticles(req)
	}
	return &FilterResponse{
		FilteredArticles: []FilteredArticle{
			{Article: Article{ID: "a1"}, Passed: true},
			{Article: Article{ID: "a2"}, Passed: false},
		},
		TotalRetrieved: 2,
	}, nil
}

func (f *fakeGateway) ExtractFeatures(_ context.Context, req ExtractRequest) (*ExtractResponse, error) {
	f.record("ExtractFeatures")
	if f.extractFeatures != nil {
		return f.extractFeatures(req)
	}
	results := map[string]map[string]interface{}{"a1": {}}
	for _, feat := range req.Features {
		results["a1"][feat.ID] = "value"
	}
	return &ExtractResponse{Results: results}, nil
}

func (f *fakeGateway) GetSession(_ context.Context, sessionID string) (*PersistedSession, error) {
	f.record("GetSession")
	if f.getSession != nil {
		return f.getSession(sessionID)
	}
	return &PersistedSession{ID: sessionID, LastCompletedStep: string(PersistedQuestionInput)}, nil
}

func (f *fakeGateway) ResetSession(_ context.Context, sessionID string, target PersistedStage) (*PersistedSession, error) {
	f.record("ResetSession")
	if f.resetSession != nil {
		return f.resetSession(sessionID, target)
	}
	return &PersistedSession{ID: sessionID, LastCompletedStep: string(target)}, nil
}

func (f *fakeGateway) UpdateKeywordHistory(_ context.Context, sessionID string, items []HistoryItem) error {
	f.record("UpdateKeywordHistory")
	if f.updateKeywordHistory != nil {
		return f.updateKeywordHistory(sessionID, items)
	}
	return nil
}
