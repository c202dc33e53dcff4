package smartsearch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"literature-search-be/internal/pkg/logger"
)

const logModule = "SmartSearch"

// Workflow is one open Smart Search run. It owns the local stage, the stage
// result cache, the keyword history ledger and the feature ledger, and it
// gates each action on the artifacts that action needs.
//
// The mutex is never held across a gateway call. Every remote action captures
// the generation token before the call; Resume and StepBack advance it, and a
// response that comes back under an older token is discarded.
type Workflow struct {
	mu sync.Mutex

	gateway Gateway
	store   SourceStore
	logger  logger.ILogger
	clock   func() time.Time

	sessionID     string
	stage         Stage
	question      string
	evidenceSpec  Artifact
	keywords      Artifact
	discriminator Artifact
	strictness    Strictness
	sources       []string

	ledger   *Ledger
	features *FeatureLedger
	cache    *ResultCache

	errSlot    error
	generation uint64
}

// Option customizes a workflow.
type Option func(*Workflow)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(w *Workflow) {
		if clock != nil {
			w.clock = clock
		}
	}
}

func WithLogger(l logger.ILogger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSourceStore sets where the selected sources are loaded from and saved to.
func WithSourceStore(store SourceStore) Option {
	return func(w *Workflow) {
		if store != nil {
			w.store = store
		}
	}
}

// New creates a workflow at the query stage and loads the selected sources.
func New(ctx context.Context, gateway Gateway, opts ...Option) (*Workflow, error) {
	if gateway == nil {
		return nil, fmt.Errorf("smart search: gateway is required")
	}
	w := &Workflow{
		gateway:    gateway,
		store:      NewMemorySourceStore(DefaultSources...),
		logger:     logger.NewNopLogger(),
		clock:      time.Now,
		stage:      StageQuery,
		strictness: StrictnessMedium,
		ledger:     NewLedger(),
		features:   NewFeatureLedger(),
		cache:      NewResultCache(),
	}
	for _, opt := range opts {
		opt(w)
	}

	sources, err := w.store.LoadSources(ctx)
	if err != nil || ValidateSources(sources) != nil {
		w.logger.Warn(logModule, "Falling back to default sources", map[string]interface{}{"error": err, "loaded": sources})
		sources = DefaultSources
	}
	w.sources = cloneStrings(sources)
	return w, nil
}

// prepare runs check under the lock, recording any error in the error slot,
// and returns the generation token the following remote call belongs to.
func (w *Workflow) prepare(check func() error) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := check(); err != nil {
		return 0, w.failLocked(err)
	}
	return w.generation, nil
}

// commit re-takes the lock after a remote call. Failed or stale responses are
// recorded and apply is skipped.
func (w *Workflow) commit(action string, gen uint64, callErr error, apply func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commitLocked(action, gen, callErr, apply)
}

func (w *Workflow) commitLocked(action string, gen uint64, callErr error, apply func() error) error {
	if callErr != nil {
		w.logger.Error(logModule, "Gateway call failed", map[string]interface{}{
			"action": action, "session_id": w.sessionID, "error": callErr.Error(),
		})
		return w.failLocked(&GatewayError{Op: action, Err: callErr})
	}
	if gen != w.generation {
		w.logger.Warn(logModule, "Discarding stale response", map[string]interface{}{
			"action": action, "session_id": w.sessionID, "generation": gen, "current": w.generation,
		})
		return w.failLocked(&StaleResponseError{Action: action})
	}
	if apply == nil {
		return nil
	}
	if err := apply(); err != nil {
		return w.failLocked(err)
	}
	return nil
}

// failLocked writes err into the shared slot unless an earlier error is still
// waiting to be cleared, and returns err.
func (w *Workflow) failLocked(err error) error {
	if w.errSlot == nil {
		w.errSlot = err
	}
	return err
}

// Err returns the error currently held in the shared slot.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errSlot
}

// ClearError empties the shared error slot.
func (w *Workflow) ClearError() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errSlot = nil
}

func (w *Workflow) SessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionID
}

func (w *Workflow) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// completeLocked records that the session finished p: later stages and their
// artifacts are forgotten, as the service does on its side.
func (w *Workflow) completeLocked(p PersistedStage) {
	w.truncateLocked(p)
	w.cache.Reach(p)
}

func (w *Workflow) truncateLocked(p PersistedStage) {
	w.cache.TruncateTo(p)
	if !p.AtOrAfter(PersistedKeywords) {
		w.keywords = Artifact{}
		w.ledger.Replace(nil)
	}
	if !p.AtOrAfter(PersistedDiscriminator) {
		w.discriminator = Artifact{}
	}
	if !p.AtOrAfter(PersistedFiltering) {
		w.features.ReplaceApplied(nil)
	}
}

func (w *Workflow) requireSessionLocked(action string) error {
	if w.sessionID == "" {
		return preconditionErr(action, "a session id")
	}
	return nil
}

func emptyArtifactErr(action, field string) error {
	return fmt.Errorf("service returned an empty %s for %s", field, action)
}

// SubmitQuestion creates the evidence specification for question and moves
// the workflow to refinement.
func (w *Workflow) SubmitQuestion(ctx context.Context, question string) (*EvidenceSpecResponse, error) {
	const action = "submit_question"
	question = strings.TrimSpace(question)

	var req EvidenceSpecRequest
	gen, err := w.prepare(func() error {
		if question == "" {
			return validationErr("question", "question is required")
		}
		req = EvidenceSpecRequest{Question: question, SessionID: w.sessionID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, callErr := w.gateway.CreateEvidenceSpec(ctx, req)
	err = w.commit(action, gen, callErr, func() error {
		if strings.TrimSpace(resp.EvidenceSpecification) == "" {
			return &GatewayError{Op: action, Err: emptyArtifactErr(action, "evidence specification")}
		}
		if resp.SessionID != "" {
			w.sessionID = resp.SessionID
		}
		if w.sessionID == "" {
			return &GatewayError{Op: action, Err: emptyArtifactErr(action, "session id")}
		}
		resp.SessionID = w.sessionID
		w.question = question
		w.evidenceSpec = newArtifact(resp.EvidenceSpecification)
		w.completeLocked(PersistedEvidenceSpec)
		w.cache.SetEvidenceSpec(resp)
		w.stage = StageRefinement
		w.logger.Info(logModule, "Evidence specification created", map[string]interface{}{"session_id": w.sessionID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := *resp
	return &out, nil
}

// GenerateKeywords generates search keywords from the submitted evidence
// specification, then tests their count. A failed count test is logged and
// the keywords are still returned.
func (w *Workflow) GenerateKeywords(ctx context.Context, sources []string) (*KeywordsResult, error) {
	const action = "generate_keywords"

	var req KeywordsRequest
	gen, err := w.prepare(func() error {
		if strings.TrimSpace(w.evidenceSpec.Submitted) == "" {
			return preconditionErr(action, "a submitted evidence specification")
		}
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		if sources == nil {
			sources = w.sources
		} else if err := ValidateSources(sources); err != nil {
			return err
		}
		req = KeywordsRequest{
			EvidenceSpecification: w.evidenceSpec.Submitted,
			SessionID:             w.sessionID,
			Sources:               cloneStrings(sources),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, callErr := w.gateway.GenerateKeywords(ctx, req)
	var result KeywordsResult
	err = w.commit(action, gen, callErr, func() error {
		if strings.TrimSpace(resp.SearchKeywords) == "" {
			return &GatewayError{Op: action, Err: emptyArtifactErr(action, "keyword string")}
		}
		w.keywords = newArtifact(resp.SearchKeywords)
		// A new generation cycle starts with an empty ledger.
		w.completeLocked(PersistedKeywords)
		w.ledger.Replace(nil)
		result = KeywordsResult{SearchKeywords: resp.SearchKeywords}
		cached := result
		w.cache.SetKeywords(&cached)
		w.stage = StageSearchQuery
		w.logger.Info(logModule, "Keywords generated", map[string]interface{}{"session_id": w.sessionID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	count, countErr := w.gateway.TestKeywordCount(ctx, CountRequest{
		Keywords:  resp.SearchKeywords,
		SessionID: req.SessionID,
		Sources:   req.Sources,
	})
	if countErr != nil {
		w.logger.Warn(logModule, "Automatic count test failed", map[string]interface{}{
			"session_id": req.SessionID, "error": countErr.Error(),
		})
		out := result
		return &out, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		w.logger.Warn(logModule, "Discarding stale count test", map[string]interface{}{"session_id": req.SessionID})
		out := result
		return &out, nil
	}
	w.cache.SetCount(count)
	if err := w.ledger.Append(HistoryItem{
		Query:      resp.SearchKeywords,
		Count:      count.TotalCount,
		Provenance: ProvenanceSystemGenerated,
		Timestamp:  w.clock(),
	}); err != nil {
		w.logger.Warn(logModule, "Generated keywords already in history", map[string]interface{}{"error": err.Error()})
	}
	result.Count = cloneCount(count)
	if cached := w.cache.Keywords(); cached != nil {
		cached.Count = cloneCount(count)
	}
	out := result
	return &out, nil
}

// TestCount tests query, or the submitted keywords when query is empty,
// without touching the history ledger.
func (w *Workflow) TestCount(ctx context.Context, query string) (*CountResponse, error) {
	const action = "test_count"

	req, gen, err := w.prepareCount(action, query, false)
	if err != nil {
		return nil, err
	}
	resp, callErr := w.gateway.TestKeywordCount(ctx, req)
	err = w.commit(action, gen, callErr, func() error {
		w.cache.SetCount(resp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCount(resp), nil
}

// TestAndRecord tests query and appends it to the ledger as user edited. A
// query already in the ledger is rejected before the remote call.
func (w *Workflow) TestAndRecord(ctx context.Context, query string) (*CountResponse, error) {
	const action = "test_and_record"

	req, gen, err := w.prepareCount(action, query, true)
	if err != nil {
		return nil, err
	}
	resp, callErr := w.gateway.TestKeywordCount(ctx, req)
	err = w.commit(action, gen, callErr, func() error {
		if err := w.ledger.Append(HistoryItem{
			Query:      req.Keywords,
			Count:      resp.TotalCount,
			Provenance: ProvenanceUserEdited,
			Timestamp:  w.clock(),
		}); err != nil {
			return err
		}
		w.cache.SetCount(resp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCount(resp), nil
}

func (w *Workflow) prepareCount(action, query string, record bool) (CountRequest, uint64, error) {
	var req CountRequest
	gen, err := w.prepare(func() error {
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		if query == "" {
			query = w.keywords.Submitted
		}
		if strings.TrimSpace(query) == "" {
			return validationErr("query", "a query or submitted keywords are required")
		}
		if record && w.ledger.Contains(query) {
			return &DuplicateQueryError{Query: query}
		}
		req = CountRequest{Keywords: query, SessionID: w.sessionID, Sources: cloneStrings(w.sources)}
		return nil
	})
	return req, gen, err
}

// OptimizeAndRecord asks the service to refine the submitted keywords toward
// OptimizeTargetMaxResults, replaces the submitted keywords with the result
// and records it in the ledger.
func (w *Workflow) OptimizeAndRecord(ctx context.Context) (*OptimizeResponse, error) {
	const action = "optimize_and_record"

	var req OptimizeRequest
	gen, err := w.prepare(func() error {
		if strings.TrimSpace(w.keywords.Submitted) == "" {
			return preconditionErr(action, "submitted keywords")
		}
		if strings.TrimSpace(w.evidenceSpec.Submitted) == "" {
			return preconditionErr(action, "a submitted evidence specification")
		}
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		req = OptimizeRequest{
			CurrentKeywords:       w.keywords.Submitted,
			EvidenceSpecification: w.evidenceSpec.Submitted,
			TargetMaxResults:      OptimizeTargetMaxResults,
			SessionID:             w.sessionID,
			Sources:               cloneStrings(w.sources),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, callErr := w.gateway.OptimizeKeywords(ctx, req)
	err = w.commit(action, gen, callErr, func() error {
		if resp.FinalKeywords == nil || strings.TrimSpace(*resp.FinalKeywords) == "" {
			return preconditionErr(action, "final_keywords in the optimization response")
		}
		final := *resp.FinalKeywords
		w.keywords.Submitted = final
		w.cache.SetCount(&CountResponse{TotalCount: resp.FinalCount, SourcesSearched: cloneStrings(req.Sources)})
		if err := w.ledger.Append(HistoryItem{
			Query:             final,
			Count:             resp.FinalCount,
			Provenance:        ProvenanceAIOptimized,
			RefinementDetails: resp.RefinementApplied,
			Timestamp:         w.clock(),
		}); err != nil {
			w.logger.Warn(logModule, "Optimized keywords already in history", map[string]interface{}{"error": err.Error()})
		}
		w.logger.Info(logModule, "Keywords optimized", map[string]interface{}{
			"session_id": w.sessionID, "final_count": resp.FinalCount,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := *resp
	return &out, nil
}

// ExecuteSearch runs the submitted keywords. Offset 0 replaces the cached
// result set; a positive offset appends to it in order. pageSize <= 0 picks the
// default for the selected sources.
func (w *Workflow) ExecuteSearch(ctx context.Context, offset, pageSize int) (*SearchResults, error) {
	const action = "execute_search"

	var (
		req       SearchRequest
		history   []HistoryItem
		prevStage Stage
	)
	gen, err := w.prepare(func() error {
		if strings.TrimSpace(w.keywords.Submitted) == "" {
			return preconditionErr(action, "submitted keywords")
		}
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		if offset < 0 {
			return validationErr("offset", "offset cannot be negative")
		}
		if offset > 0 && w.cache.Search() == nil {
			return preconditionErr(action, "a first page of results before paginating")
		}
		if pageSize <= 0 {
			pageSize = DefaultPageSize(w.sources)
		}
		if offset == 0 && w.cache.Search() == nil && w.ledger.Len() > 0 {
			history = w.ledger.Items()
		}
		req = SearchRequest{
			Keywords:   w.keywords.Submitted,
			MaxResults: pageSize,
			Offset:     offset,
			SessionID:  w.sessionID,
			Sources:    cloneStrings(w.sources),
		}
		prevStage = w.stage
		if offset == 0 {
			w.stage = StageSearching
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(history) > 0 {
		if err := w.gateway.UpdateKeywordHistory(ctx, req.SessionID, history); err != nil {
			w.logger.Warn(logModule, "Keyword history sync failed, continuing search", map[string]interface{}{
				"session_id": req.SessionID, "error": err.Error(),
			})
		}
	}

	resp, callErr := w.gateway.ExecuteSearch(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	var results *SearchResults
	err = w.commitLocked(action, gen, callErr, func() error {
		if offset == 0 {
			w.completeLocked(PersistedSearchExecution)
			results = &SearchResults{
				Articles:        append([]Article{}, resp.Articles...),
				Pagination:      resp.Pagination,
				SourcesSearched: cloneStrings(resp.SourcesSearched),
			}
			results.Pagination.Returned = len(results.Articles)
			w.stage = StageSearchResults
		} else {
			prev := w.cache.Search()
			if prev == nil {
				return preconditionErr(action, "a first page of results before paginating")
			}
			results = prev
			results.Articles = append(results.Articles, resp.Articles...)
			results.Pagination = resp.Pagination
			results.Pagination.Returned = len(results.Articles)
			if len(resp.SourcesSearched) > 0 {
				results.SourcesSearched = cloneStrings(resp.SourcesSearched)
			}
		}
		w.cache.SetSearch(results)
		w.logger.Info(logModule, "Search executed", map[string]interface{}{
			"session_id": w.sessionID, "offset": offset, "returned": results.Pagination.Returned,
			"total_available": results.Pagination.TotalAvailable,
		})
		return nil
	})
	if err != nil {
		if gen == w.generation && w.stage == StageSearching {
			w.stage = prevStage
		}
		return nil, err
	}
	return w.cache.snapshot().Search, nil
}

// GenerateDiscriminator builds the filtering prompt for the submitted
// specification and keywords.
func (w *Workflow) GenerateDiscriminator(ctx context.Context) (*DiscriminatorResponse, error) {
	const action = "generate_discriminator"

	var req DiscriminatorRequest
	gen, err := w.prepare(func() error {
		if strings.TrimSpace(w.evidenceSpec.Submitted) == "" {
			return preconditionErr(action, "a submitted evidence specification")
		}
		if strings.TrimSpace(w.keywords.Submitted) == "" {
			return preconditionErr(action, "submitted keywords")
		}
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		req = DiscriminatorRequest{
			EvidenceSpecification: w.evidenceSpec.Submitted,
			Keywords:              w.keywords.Submitted,
			Strictness:            w.strictness,
			SessionID:             w.sessionID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, callErr := w.gateway.GenerateDiscriminator(ctx, req)
	err = w.commit(action, gen, callErr, func() error {
		if strings.TrimSpace(resp.DiscriminatorPrompt) == "" {
			return &GatewayError{Op: action, Err: emptyArtifactErr(action, "discriminator prompt")}
		}
		w.discriminator = newArtifact(resp.DiscriminatorPrompt)
		w.completeLocked(PersistedDiscriminator)
		w.cache.SetDiscriminator(resp)
		w.stage = StageDiscriminator
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := *resp
	return &out, nil
}

// Filter runs the discriminator over the search results. The full available
// count is requested; the service caps it and reports what it actually
// processed in TotalRetrieved.
func (w *Workflow) Filter(ctx context.Context) (*FilterResults, error) {
	const action = "filter"

	var (
		req       FilterRequest
		prevStage Stage
	)
	gen, err := w.prepare(func() error {
		switch {
		case strings.TrimSpace(w.evidenceSpec.Submitted) == "":
			return preconditionErr(action, "a submitted evidence specification")
		case strings.TrimSpace(w.keywords.Submitted) == "":
			return preconditionErr(action, "submitted keywords")
		case strings.TrimSpace(w.discriminator.Submitted) == "":
			return preconditionErr(action, "a submitted discriminator")
		}
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		search := w.cache.Search()
		if search == nil {
			return preconditionErr(action, "search results")
		}
		req = FilterRequest{
			EvidenceSpecification: w.evidenceSpec.Submitted,
			Keywords:              w.keywords.Submitted,
			DiscriminatorPrompt:   w.discriminator.Submitted,
			Strictness:            w.strictness,
			SessionID:             w.sessionID,
			Sources:               cloneStrings(w.sources),
			MaxResults:            search.Pagination.TotalAvailable,
		}
		prevStage = w.stage
		w.stage = StageFiltering
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, callErr := w.gateway.FilterArticles(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	var results *FilterResults
	err = w.commitLocked(action, gen, callErr, func() error {
		retrieved := resp.TotalRetrieved
		if retrieved > req.MaxResults {
			w.logger.Warn(logModule, "Service reported more retrieved than available, clamping", map[string]interface{}{
				"session_id": w.sessionID, "total_retrieved": retrieved, "total_available": req.MaxResults,
			})
			retrieved = req.MaxResults
		}
		w.completeLocked(PersistedFiltering)
		results = &FilterResults{
			Articles:             cloneFiltered(resp.FilteredArticles),
			TotalRetrieved:       retrieved,
			TotalAvailable:       req.MaxResults,
			SearchLimitationNote: resp.SearchLimitationNote,
		}
		w.cache.SetFilter(results)
		w.cache.SetExtraction(nil)
		w.stage = StageResults
		w.logger.Info(logModule, "Articles filtered", map[string]interface{}{
			"session_id": w.sessionID, "accepted": results.Accepted(), "total_retrieved": retrieved,
		})
		return nil
	})
	if err != nil {
		if gen == w.generation && w.stage == StageFiltering {
			w.stage = prevStage
		}
		return nil, err
	}
	return w.cache.snapshot().Filter, nil
}

// AddPendingFeature queues a feature for the next extraction.
func (w *Workflow) AddPendingFeature(f FeatureDefinition) (FeatureDefinition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	added, err := w.features.AddPending(f)
	if err != nil {
		return FeatureDefinition{}, w.failLocked(err)
	}
	return added, nil
}

// RemovePendingFeature drops a queued feature. It reports whether it existed.
func (w *Workflow) RemovePendingFeature(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.features.RemovePending(id)
}

// RemoveAppliedFeature drops an extracted feature along with every value
// extracted for it.
func (w *Workflow) RemoveAppliedFeature(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	removed := w.features.RemoveApplied(id)
	removed = w.features.RemovePending(id) || removed
	w.cache.purgeFeature(id)
	return removed
}

// ExtractFeatures extracts every pending feature from the filtered articles
// and moves them into the applied set.
func (w *Workflow) ExtractFeatures(ctx context.Context) (*ExtractionResults, error) {
	const action = "extract_features"

	var req ExtractRequest
	gen, err := w.prepare(func() error {
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		if w.cache.Filter() == nil {
			return preconditionErr(action, "filtered articles")
		}
		pending := w.features.Pending()
		if len(pending) == 0 {
			return validationErr("features", "no pending features to extract")
		}
		req = ExtractRequest{SessionID: w.sessionID, Features: pending}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, callErr := w.gateway.ExtractFeatures(ctx, req)
	err = w.commit(action, gen, callErr, func() error {
		filter := w.cache.Filter()
		if filter == nil {
			return preconditionErr(action, "filtered articles")
		}
		// Features removed while the call ran are dropped with their values.
		applied := w.features.Apply(req.Features)
		for i := range filter.Articles {
			values, ok := resp.Results[filter.Articles[i].Article.ID]
			if !ok {
				continue
			}
			if filter.Articles[i].Extracted == nil {
				filter.Articles[i].Extracted = make(map[string]interface{}, len(values))
			}
			for featureID, v := range values {
				if applied[featureID] {
					filter.Articles[i].Extracted[featureID] = v
				}
			}
		}

		table := w.cache.Extraction()
		if table == nil {
			table = &ExtractionResults{Values: make(map[string]map[string]interface{})}
		}
		for articleID, values := range resp.Results {
			row := table.Values[articleID]
			if row == nil {
				row = make(map[string]interface{}, len(values))
				table.Values[articleID] = row
			}
			for featureID, v := range values {
				if applied[featureID] {
					row[featureID] = v
				}
			}
		}
		table.Metadata = cloneValues(resp.Metadata)
		w.cache.SetExtraction(table)
		w.logger.Info(logModule, "Features extracted", map[string]interface{}{
			"session_id": w.sessionID, "features": len(applied), "articles": len(resp.Results),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w.cache.snapshot().Extraction, nil
}

// EditEvidenceSpec replaces the submitted evidence specification.
func (w *Workflow) EditEvidenceSpec(text string) error {
	return w.edit("edit_evidence_spec", PersistedEvidenceSpec, "evidence_spec", text, &w.evidenceSpec)
}

// EditKeywords replaces the submitted keywords.
func (w *Workflow) EditKeywords(text string) error {
	return w.edit("edit_keywords", PersistedKeywords, "keywords", text, &w.keywords)
}

// EditDiscriminator replaces the submitted discriminator prompt.
func (w *Workflow) EditDiscriminator(text string) error {
	return w.edit("edit_discriminator", PersistedDiscriminator, "discriminator", text, &w.discriminator)
}

func (w *Workflow) edit(action string, owner PersistedStage, field, text string, target *Artifact) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.cache.Reached(owner) {
		return w.failLocked(preconditionErr(action, "a generated "+field))
	}
	if strings.TrimSpace(text) == "" {
		return w.failLocked(validationErr(field, "cannot be empty"))
	}
	target.Submitted = text
	return nil
}

// SetStrictness changes the filter strictness used by later stages.
func (w *Workflow) SetStrictness(s Strictness) error {
	parsed, err := ParseStrictness(string(s))
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		return w.failLocked(err)
	}
	w.strictness = parsed
	return nil
}

// SetSources changes the selected sources and writes them to the source store.
func (w *Workflow) SetSources(ctx context.Context, sources []string) error {
	w.mu.Lock()
	if err := ValidateSources(sources); err != nil {
		w.mu.Unlock()
		return w.fail(err)
	}
	w.sources = cloneStrings(sources)
	w.mu.Unlock()

	if err := w.store.SaveSources(ctx, sources); err != nil {
		w.logger.Warn(logModule, "Saving selected sources failed", map[string]interface{}{"error": err.Error()})
		return w.fail(fmt.Errorf("save selected sources: %w", err))
	}
	return nil
}

func (w *Workflow) fail(err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failLocked(err)
}

// Snapshot returns a deep copy of the local state.
func (w *Workflow) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() State {
	st := State{
		SessionID:       w.sessionID,
		Stage:           w.stage,
		LastCompleted:   w.cache.Marker(),
		Question:        w.question,
		EvidenceSpec:    w.evidenceSpec,
		Keywords:        w.keywords,
		Discriminator:   w.discriminator,
		Strictness:      w.strictness,
		Sources:         cloneStrings(w.sources),
		History:         w.ledger.Items(),
		PendingFeatures: w.features.Pending(),
		AppliedFeatures: w.features.Applied(),
		Results:         w.cache.snapshot(),
		Generation:      w.generation,
	}
	if w.errSlot != nil {
		st.Error = w.errSlot.Error()
	}
	return st
}
