package smartsearch

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Resume rebuilds local state from the persisted session sessionID. On failure
// the error is recorded and local state is left as it was.
func (w *Workflow) Resume(ctx context.Context, sessionID string) (State, error) {
	const action = "resume"
	sessionID = strings.TrimSpace(sessionID)

	gen, err := w.prepare(func() error {
		if sessionID == "" {
			return validationErr("session_id", "session id is required")
		}
		w.generation++
		return nil
	})
	if err != nil {
		return w.Snapshot(), err
	}

	rec, callErr := w.gateway.GetSession(ctx, sessionID)

	w.mu.Lock()
	defer w.mu.Unlock()
	err = w.commitLocked(action, gen, callErr, func() error {
		return w.applyRecordLocked(action, rec, sessionID)
	})
	return w.snapshotLocked(), err
}

// StepBack resets the persisted session to target and rebuilds local state
// from the service's answer. Stepping back into search results re-runs the
// search, since the session keeps only aggregate counts, not articles.
func (w *Workflow) StepBack(ctx context.Context, target Stage) (State, error) {
	const action = "step_back"

	var sessionID string
	gen, err := w.prepare(func() error {
		if err := w.requireSessionLocked(action); err != nil {
			return err
		}
		if target.Transient() || target < StageQuery || target > StageResults {
			return validationErr("stage", fmt.Sprintf("cannot step back to %s", target))
		}
		if target > w.stage {
			return validationErr("stage", fmt.Sprintf("%s is ahead of the current stage %s", target, w.stage))
		}
		sessionID = w.sessionID
		w.generation++
		return nil
	})
	if err != nil {
		return w.Snapshot(), err
	}

	rec, callErr := w.gateway.ResetSession(ctx, sessionID, PersistedStageOf(target))

	w.mu.Lock()
	err = w.commitLocked(action, gen, callErr, func() error {
		return w.applyRecordLocked(action, rec, sessionID)
	})
	rerun := err == nil && w.stage == StageSearchResults
	w.mu.Unlock()
	if err != nil {
		return w.Snapshot(), err
	}

	if rerun {
		w.logger.Info(logModule, "Re-running search after step back", map[string]interface{}{"session_id": sessionID})
		if _, err := w.ExecuteSearch(ctx, 0, 0); err != nil {
			return w.Snapshot(), err
		}
	}
	return w.Snapshot(), nil
}

// applyRecordLocked replaces local state with what rec says. The last
// completed marker alone decides which stage results are materialized.
// requestedID is kept when the record carries no id of its own.
func (w *Workflow) applyRecordLocked(action string, rec *PersistedSession, requestedID string) error {
	if rec == nil {
		return &GatewayError{Op: action, Err: fmt.Errorf("service returned no session record")}
	}
	marker, err := ParsePersistedStage(rec.LastCompletedStep)
	if err != nil {
		return &GatewayError{Op: action, Err: err}
	}
	strictness, err := ParseStrictness(rec.FilterStrictness)
	if err != nil {
		strictness = StrictnessMedium
	}

	// 1. scalars
	w.sessionID = rec.ID
	if w.sessionID == "" {
		w.sessionID = requestedID
	}
	w.question = rec.OriginalQuestion
	w.evidenceSpec = restoredArtifact(rec.GeneratedEvidenceSpec, rec.SubmittedEvidenceSpec)
	w.keywords = restoredArtifact(rec.GeneratedSearchKeywords, rec.SubmittedSearchKeywords)
	w.discriminator = restoredArtifact(rec.GeneratedDiscriminator, rec.SubmittedDiscriminator)
	w.strictness = strictness

	// 2. derived results, only for stages the session reached
	cache := NewResultCache()
	cache.ReachThrough(marker)
	if marker.AtOrAfter(PersistedEvidenceSpec) {
		cache.SetEvidenceSpec(&EvidenceSpecResponse{
			EvidenceSpecification: w.evidenceSpec.Generated,
			SessionID:             w.sessionID,
		})
	} else {
		w.evidenceSpec = Artifact{}
	}
	if marker.AtOrAfter(PersistedKeywords) {
		cache.SetKeywords(&KeywordsResult{SearchKeywords: w.keywords.Generated})
	} else {
		w.keywords = Artifact{}
	}
	if marker.AtOrAfter(PersistedDiscriminator) {
		cache.SetDiscriminator(&DiscriminatorResponse{DiscriminatorPrompt: w.discriminator.Generated})
	} else {
		w.discriminator = Artifact{}
	}

	// 3. search container from aggregate counts
	meta := rec.SearchMetadata
	if marker.AtOrAfter(PersistedSearchExecution) && meta != nil {
		cache.SetSearch(&SearchResults{
			Articles: []Article{},
			Pagination: Pagination{
				TotalAvailable: meta.TotalAvailable,
				Returned:       meta.TotalRetrieved,
				HasMore:        meta.TotalRetrieved < meta.TotalAvailable,
			},
			SourcesSearched: cloneStrings(meta.SourcesSearched),
		})
	}

	filtering := rec.FilteringMetadata
	accepted := filtering != nil && filtering.Accepted != nil
	w.features.ReplaceApplied(nil)
	if marker.AtOrAfter(PersistedFiltering) && accepted {
		total := 0
		if meta != nil {
			total = meta.TotalAvailable
		}
		retrieved := len(rec.FilteredArticles)
		if meta != nil && meta.TotalRetrieved > 0 {
			retrieved = meta.TotalRetrieved
		}
		if total > 0 && retrieved > total {
			retrieved = total
		}
		cache.SetFilter(&FilterResults{
			Articles:       cloneFiltered(rec.FilteredArticles),
			TotalRetrieved: retrieved,
			TotalAvailable: total,
		})
		if table := extractedTable(rec.FilteredArticles); table != nil {
			cache.SetExtraction(table)
		}
		w.features.ReplaceApplied(filtering.CustomColumns)
	}
	w.cache = cache

	// 4. history, verbatim or empty
	w.ledger.Replace(nil)
	if meta != nil && len(meta.KeywordHistory) > 0 {
		if dropped := w.ledger.Replace(restoreHistory(meta.KeywordHistory)); len(dropped) > 0 {
			w.logger.Warn(logModule, "Persisted keyword history has duplicate queries, keeping the first of each", map[string]interface{}{
				"session_id": w.sessionID, "dropped": dropped,
			})
		}
	}

	// 5. local stage
	w.stage = ResolveLocalStage(marker, meta != nil, accepted)

	w.logger.Info(logModule, "Session state reconstructed", map[string]interface{}{
		"action": action, "session_id": w.sessionID, "last_completed_step": string(marker), "stage": w.stage.String(),
	})
	return nil
}

func restoredArtifact(generated, submitted string) Artifact {
	if strings.TrimSpace(submitted) == "" {
		submitted = generated
	}
	return Artifact{Generated: generated, Submitted: submitted}
}

func restoreHistory(items []PersistedHistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, len(items))
	for _, item := range items {
		var ts time.Time
		if parsed, err := time.Parse(time.RFC3339, item.Timestamp); err == nil {
			ts = parsed.Local()
		}
		out = append(out, HistoryItem{
			Query:             item.Query,
			Count:             item.Count,
			Provenance:        Provenance(item.ChangeType),
			RefinementDetails: item.RefinementDetails,
			Timestamp:         ts,
		})
	}
	return out
}

// PersistHistory converts ledger items to their stored form.
func PersistHistory(items []HistoryItem) []PersistedHistoryItem {
	out := make([]PersistedHistoryItem, 0, len(items))
	for _, item := range items {
		out = append(out, PersistedHistoryItem{
			Query:             item.Query,
			Count:             item.Count,
			ChangeType:        string(item.Provenance),
			RefinementDetails: item.RefinementDetails,
			Timestamp:         item.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func extractedTable(articles []FilteredArticle) *ExtractionResults {
	var table *ExtractionResults
	for _, a := range articles {
		if len(a.Extracted) == 0 {
			continue
		}
		if table == nil {
			table = &ExtractionResults{Values: make(map[string]map[string]interface{})}
		}
		table.Values[a.Article.ID] = cloneValues(a.Extracted)
	}
	return table
}
