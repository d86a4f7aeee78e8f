package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoiceMetrics exposes counters/histograms for the voice dialogue pipeline.
type VoiceMetrics struct {
	turnsTotal         *prometheus.CounterVec
	transfersTotal     *prometheus.CounterVec
	confirmationsTotal prometheus.Counter
	turnLatency        *prometheus.HistogramVec
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reception",
			Subsystem: "voice",
			Name:      "turns_total",
			Help:      "Total dialogue turns processed",
		}, []string{"mode", "state"}),
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reception",
			Subsystem: "voice",
			Name:      "transfers_total",
			Help:      "Total turns escalated to a human",
		}, []string{"reason"}),
		confirmationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reception",
			Subsystem: "voice",
			Name:      "confirmations_total",
			Help:      "Total bookings confirmed",
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reception",
			Subsystem: "voice",
			Name:      "turn_seconds",
			Help:      "Latency of dialogue turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.transfersTotal, m.confirmationsTotal, m.turnLatency)
	return m
}

func (m *VoiceMetrics) ObserveTurn(mode, state string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(mode, state).Inc()
	m.turnLatency.WithLabelValues(mode).Observe(seconds)
}

func (m *VoiceMetrics) ObserveTransfer(reason string) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(reason).Inc()
}

func (m *VoiceMetrics) ObserveConfirmation() {
	if m == nil {
		return
	}
	m.confirmationsTotal.Inc()
}
