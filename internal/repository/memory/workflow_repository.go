package memory

import (
	"time"

	"literature-search-be/pkg/smartsearch"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// WorkflowEntry is a live workflow and its owner.
type WorkflowEntry struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Workflow  *smartsearch.Workflow
	CreatedAt time.Time
}

type WorkflowRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewWorkflowRepository keeps idle workflows for ttl, purging expired ones every ttl/6.
func NewWorkflowRepository(ttl time.Duration) *WorkflowRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	cleanup := ttl / 6
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &WorkflowRepository{
		cache: cache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

func (r *WorkflowRepository) Save(entry *WorkflowEntry) {
	r.cache.Set(entry.Id.String(), entry, cache.DefaultExpiration)
}

// Get returns the entry and resets its idle timer.
func (r *WorkflowRepository) Get(id uuid.UUID) (*WorkflowEntry, bool) {
	x, found := r.cache.Get(id.String())
	if !found {
		return nil, false
	}
	entry := x.(*WorkflowEntry)
	r.cache.Set(id.String(), entry, cache.DefaultExpiration)
	return entry, true
}

func (r *WorkflowRepository) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}

func (r *WorkflowRepository) Count() int {
	return r.cache.ItemCount()
}
