package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry. Components accept a
// possibly-nil *Metrics so unit tests can skip registration.
type Metrics struct {
	RecordsRegistered prometheus.Counter
	RecordsUpdated    prometheus.Counter
	RecordsRevoked    prometheus.Counter

	MessagesApplied  prometheus.Counter
	MessagesRejected *prometheus.CounterVec

	ReplaysRejected    prometheus.Counter
	ValidationFailures prometheus.Counter

	FeesCollectedNative  prometheus.Counter
	FeeDistributions     prometheus.Counter
	WriteDurationSeconds prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RecordsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_records_registered_total",
			Help: "Total metadata records created.",
		}),
		RecordsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_records_updated_total",
			Help: "Total metadata record updates.",
		}),
		RecordsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_records_revoked_total",
			Help: "Total metadata records revoked.",
		}),
		MessagesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_crossdomain_messages_applied_total",
			Help: "Cross-domain messages applied to the ledger.",
		}),
		MessagesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "metaregistry_crossdomain_messages_rejected_total",
			Help: "Cross-domain messages rejected, by reason.",
		}, []string{"reason"}),
		ReplaysRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_replays_rejected_total",
			Help: "Attestation replays rejected.",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_validation_failures_total",
			Help: "Metadata documents that failed validation.",
		}),
		FeesCollectedNative: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_fees_collected_native_total",
			Help: "Fees collected, in native base units.",
		}),
		FeeDistributions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "metaregistry_fee_distributions_total",
			Help: "Fee distribution runs completed.",
		}),
		WriteDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "metaregistry_write_duration_seconds",
			Help:    "Ledger write latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncRegistered() {
	if m != nil {
		m.RecordsRegistered.Inc()
	}
}

func (m *Metrics) IncUpdated() {
	if m != nil {
		m.RecordsUpdated.Inc()
	}
}

func (m *Metrics) IncRevoked() {
	if m != nil {
		m.RecordsRevoked.Inc()
	}
}

func (m *Metrics) IncMessageApplied() {
	if m != nil {
		m.MessagesApplied.Inc()
	}
}

func (m *Metrics) IncMessageRejected(reason string) {
	if m != nil {
		m.MessagesRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncReplayRejected() {
	if m != nil {
		m.ReplaysRejected.Inc()
	}
}

func (m *Metrics) IncValidationFailure() {
	if m != nil {
		m.ValidationFailures.Inc()
	}
}

func (m *Metrics) AddFeesCollected(native uint64) {
	if m != nil {
		m.FeesCollectedNative.Add(float64(native))
	}
}

func (m *Metrics) IncFeeDistribution() {
	if m != nil {
		m.FeeDistributions.Inc()
	}
}

func (m *Metrics) ObserveWriteDuration(seconds float64) {
	if m != nil {
		m.WriteDurationSeconds.Observe(seconds)
	}
}
