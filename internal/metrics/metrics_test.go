package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, func() float64 { return 3 })

	r.Observe("search", OutcomeOK, 200*time.Millisecond)
	r.Observe("search", OutcomeOK, time.Second)
	r.Observe("search", OutcomeGateway, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.actions.WithLabelValues("search", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.actions.WithLabelValues("search", OutcomeGateway)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.live))

	count, err := testutil.GatherAndCount(reg, "smart_search_action_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
