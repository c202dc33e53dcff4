package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStageCompletedEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := StageCompleted("u1", "w1", "s1", "search", "search-results", at)

	assert.Equal(t, TypeStageCompleted, e.EventType())
	assert.Equal(t, at, e.Timestamp())
	assert.Equal(t, "s1", e.Payload()["session_id"])
	assert.Equal(t, "search-results", e.Payload()["stage"])
}

func TestWorkflowErrorEvent(t *testing.T) {
	e := WorkflowError("u1", "w1", "s1", "filter", "gateway timeout", time.Now())

	assert.Equal(t, TypeWorkflowError, e.EventType())
	assert.Equal(t, "filter", e.Payload()["action"])
	assert.Equal(t, "gateway timeout", e.Payload()["error"])
	assert.NotContains(t, e.Payload(), "stage")
}
