package nats

import (
	"encoding/json"
	"testing"
	"time"

	"literature-search-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "smartsearch.stage_completed", Subject(events.TypeStageCompleted))
}

func TestDecodeEventRoundTripsEnvelope(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(envelope{
		Type:       events.TypeStageCompleted,
		OccurredAt: at,
		Data:       map[string]interface{}{"session_id": "s1"},
	})
	require.NoError(t, err)

	e, err := DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, events.TypeStageCompleted, e.EventType())
	assert.True(t, at.Equal(e.Timestamp()))
	assert.Equal(t, "s1", e.Payload()["session_id"])
}

func TestDecodeEventRejectsBadInput(t *testing.T) {
	_, err := DecodeEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"data":{}}`))
	assert.Error(t, err)
}
