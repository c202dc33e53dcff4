package smartsearch

import "time"

// Provenance tags how a ledger entry's query was produced.
type Provenance string

const (
	ProvenanceSystemGenerated Provenance = "system_generated"
	ProvenanceUserEdited      Provenance = "user_edited"
	ProvenanceAIOptimized     Provenance = "ai_optimized"
)

// HistoryItem is one tested or generated query and the count it produced.
type HistoryItem struct {
	Query             string     `json:"query"`
	Count             int        `json:"count"`
	Provenance        Provenance `json:"change_type"`
	RefinementDetails string     `json:"refinement_details,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
}

// Ledger is the append-only keyword history. Queries are unique by exact
// string match and entries keep call order. There is no single-item delete.
type Ledger struct {
	items []HistoryItem
	seen  map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

func (l *Ledger) Contains(query string) bool {
	_, ok := l.seen[query]
	return ok
}

// Append adds item at the end. A query already present is rejected and the
// ledger is left unchanged.
func (l *Ledger) Append(item HistoryItem) error {
	if l.Contains(item.Query) {
		return &DuplicateQueryError{Query: item.Query}
	}
	l.items = append(l.items, item)
	l.seen[item.Query] = struct{}{}
	return nil
}

// Replace re-creates the ledger from items, e.g. from a persisted record.
// Later duplicates in items are dropped so the uniqueness invariant holds;
// their queries are returned.
func (l *Ledger) Replace(items []HistoryItem) []string {
	l.items = make([]HistoryItem, 0, len(items))
	l.seen = make(map[string]struct{}, len(items))
	var dropped []string
	for _, item := range items {
		if err := l.Append(item); err != nil {
			dropped = append(dropped, item.Query)
		}
	}
	return dropped
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Items returns a copy in append order.
func (l *Ledger) Items() []HistoryItem {
	out := make([]HistoryItem, len(l.items))
	copy(out, l.items)
	return out
}
