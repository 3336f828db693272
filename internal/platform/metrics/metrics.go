package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values besides the error kinds reported by the gateway.
const OutcomeOK = "ok"

// Metrics holds the Prometheus metrics of the registry gateway.
type Metrics struct {
	Operations         *prometheus.CounterVec
	CertificatesPosted prometheus.Counter
	BulkItemsSkipped   prometheus.Counter
}

// New creates all gateway metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certregistry_operations_total",
			Help: "Registry operations by operation name and outcome",
		}, []string{"operation", "outcome"}),
		CertificatesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "certregistry_certificates_posted_total",
			Help: "Certificates recorded through single posts and bulk uploads",
		}),
		BulkItemsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "certregistry_bulk_items_skipped_total",
			Help: "Bulk upload items skipped because their hash was already recorded",
		}),
	}
}

// ObserveOperation counts one call of operation with the given outcome.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// AddCertificatesPosted records n newly stored certificates.
func (m *Metrics) AddCertificatesPosted(n int) {
	m.CertificatesPosted.Add(float64(n))
}

// AddBulkItemsSkipped records n bulk items skipped as duplicates.
func (m *Metrics) AddBulkItemsSkipped(n uint64) {
	m.BulkItemsSkipped.Add(float64(n))
}
