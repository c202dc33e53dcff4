package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK           = "ok"
	OutcomeValidation   = "validation"
	OutcomePrecondition = "precondition"
	OutcomeDuplicate    = "duplicate"
	OutcomeGateway      = "gateway"
	OutcomeStale        = "stale"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// Recorder counts Smart Search actions and times them.
type Recorder struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	live     prometheus.GaugeFunc
}

// NewRecorder registers the collectors on reg. liveWorkflows may be nil.
func NewRecorder(reg prometheus.Registerer, liveWorkflows func() float64) *Recorder {
	r := &Recorder{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smart_search_actions_total",
			Help: "Smart Search workflow actions by outcome.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smart_search_action_duration_seconds",
			Help:    "Time spent in a Smart Search action, gateway round trips included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"action"}),
	}
	reg.MustRegister(r.actions, r.duration)

	if liveWorkflows != nil {
		r.live = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "smart_search_live_workflows",
			Help: "Workflows currently held in memory.",
		}, liveWorkflows)
		reg.MustRegister(r.live)
	}
	return r
}

// Actions exposes the counter, mainly for assertions.
func (r *Recorder) Actions() *prometheus.CounterVec {
	return r.actions
}

func (r *Recorder) Observe(action, outcome string, elapsed time.Duration) {
	r.actions.WithLabelValues(action, outcome).Inc()
	r.duration.WithLabelValues(action).Observe(elapsed.Seconds())
}
