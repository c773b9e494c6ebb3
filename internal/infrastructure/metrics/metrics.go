package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Transfer metrics
	TransfersStarted  prometheus.Counter
	TransferOutcomes  *prometheus.CounterVec
	DeliveryExhausted *prometheus.CounterVec

	// Actor metrics
	ActorRestarts *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransfersStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "moneytransfer_transfers_started_total",
			Help: "Total number of transfer sagas started",
		}),
		TransferOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "moneytransfer_transfers_terminal_total",
			Help: "Total number of transfers per terminal status",
		}, []string{"status"}),
		DeliveryExhausted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "moneytransfer_delivery_exhausted_total",
			Help: "Total number of delivery attempt exhaustions per saga stage",
		}, []string{"stage"}),
		ActorRestarts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "moneytransfer_actor_restarts_total",
			Help: "Total number of supervised actor restarts",
		}, []string{"actor"}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "moneytransfer_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moneytransfer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// TransferStarted records a new saga.
func (m *Metrics) TransferStarted() {
	m.TransfersStarted.Inc()
}

// TransferTerminal records a saga reaching a terminal status.
func (m *Metrics) TransferTerminal(status domain.TransferStatus) {
	m.TransferOutcomes.WithLabelValues(string(status)).Inc()
}

// DeliveryExhaustedAt records redelivery exhaustion in a saga stage.
func (m *Metrics) DeliveryExhaustedAt(status domain.TransferStatus) {
	m.DeliveryExhausted.WithLabelValues(string(status)).Inc()
}
