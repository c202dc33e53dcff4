package memory

import (
	"context"
	"testing"
	"time"

	"literature-search-be/pkg/smartsearch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopGateway struct{ smartsearch.Gateway }

func TestWorkflowRepositorySaveGetDelete(t *testing.T) {
	repo := NewWorkflowRepository(time.Hour)
	wf, err := smartsearch.New(context.Background(), nopGateway{})
	require.NoError(t, err)

	entry := &WorkflowEntry{Id: uuid.New(), UserId: uuid.New(), Workflow: wf, CreatedAt: time.Now()}
	repo.Save(entry)

	got, ok := repo.Get(entry.Id)
	require.True(t, ok)
	assert.Same(t, entry, got)
	assert.Equal(t, 1, repo.Count())

	repo.Delete(entry.Id)
	_, ok = repo.Get(entry.Id)
	assert.False(t, ok)
}

func TestWorkflowRepositoryExpiresIdleEntries(t *testing.T) {
	repo := NewWorkflowRepository(20 * time.Millisecond)
	id := uuid.New()
	repo.Save(&WorkflowEntry{Id: id})

	time.Sleep(40 * time.Millisecond)
	_, ok := repo.Get(id)
	assert.False(t, ok)
}
