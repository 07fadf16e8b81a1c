package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the observer's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	EventsEmitted      *prometheus.CounterVec
	EventsDropped      *prometheus.CounterVec
	AuditLookups       *prometheus.CounterVec
	ChannelsResolved   *prometheus.CounterVec
	ProfileChanges     *prometheus.CounterVec
	DiffTickDuration   prometheus.Histogram
	VoiceSessionsOpen  prometheus.Gauge
	VoiceSessionsSwept prometheus.Counter
	Diagnostics        *prometheus.CounterVec
	QueueDropped       prometheus.Counter
}

// New registers every collector on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "observer_events_emitted_total",
			Help: "Log records delivered to an output channel, by action",
		}, []string{"action"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "observer_events_dropped_total",
			Help: "Log records that could not be delivered, by reason",
		}, []string{"reason"}),
		AuditLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "observer_audit_lookups_total",
			Help: "Audit trail queries, by action kind and outcome",
		}, []string{"kind", "outcome"}),
		ChannelsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "observer_channels_resolved_total",
			Help: "Output channel resolutions, by path taken",
		}, []string{"path"}),
		ProfileChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "observer_profile_changes_total",
			Help: "Profile drifts detected, by field",
		}, []string{"field"}),
		DiffTickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "observer_diff_tick_seconds",
			Help:    "Duration of a full profile diff tick",
			Buckets: prometheus.DefBuckets,
		}),
		VoiceSessionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "observer_voice_sessions_open",
			Help: "Voice sessions currently tracked",
		}),
		VoiceSessionsSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "observer_voice_sessions_swept_total",
			Help: "Voice sessions evicted as stale",
		}),
		Diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "observer_diagnostics_total",
			Help: "Operational failures recorded, by scope",
		}, []string{"scope"}),
		QueueDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "observer_gateway_events_dropped_total",
			Help: "Gateway events dropped because a guild queue was full",
		}),
	}
}

func (m *Metrics) IncEmitted(action string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(action).Inc()
}

func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncAuditLookup(kind, outcome string) {
	if m == nil {
		return
	}
	m.AuditLookups.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncResolved(path string) {
	if m == nil {
		return
	}
	m.ChannelsResolved.WithLabelValues(path).Inc()
}

func (m *Metrics) IncProfileChange(field string) {
	if m == nil {
		return
	}
	m.ProfileChanges.WithLabelValues(field).Inc()
}

func (m *Metrics) ObserveDiffTick(seconds float64) {
	if m == nil {
		return
	}
	m.DiffTickDuration.Observe(seconds)
}

func (m *Metrics) SetVoiceSessions(n int) {
	if m == nil {
		return
	}
	m.VoiceSessionsOpen.Set(float64(n))
}

func (m *Metrics) AddSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.VoiceSessionsSwept.Add(float64(n))
}

func (m *Metrics) IncDiagnostic(scope string) {
	if m == nil {
		return
	}
	m.Diagnostics.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncQueueDropped() {
	if m == nil {
		return
	}
	m.QueueDropped.Inc()
}
