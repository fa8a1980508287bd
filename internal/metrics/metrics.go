// Package metrics exposes operation counters and latencies in Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salgados/internal/models"
)

type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	orders     *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salgados",
			Name:      "operations_total",
			Help:      "Surface operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salgados",
			Name:      "operation_duration_seconds",
			Help:      "Duration of surface operations including persistence.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salgados",
			Name:      "order_transitions_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(r.operations, r.latency, r.orders)
	return r
}

// Observe records one finished operation. err selects the outcome label.
func (r *Recorder) Observe(operation string, err error, d time.Duration) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, Outcome(err)).Inc()
	r.latency.WithLabelValues(operation).Observe(d.Seconds())
}

func (r *Recorder) Transition(status models.OrderStatus) {
	if r == nil {
		return
	}
	r.orders.WithLabelValues(string(status)).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Outcome classifies an operation error into a low-cardinality label.
func Outcome(err error) string {
	var (
		notFound   *models.NotFoundError
		duplicate  *models.DuplicateError
		protected  *models.ProtectedRecordError
		immutable  *models.ImmutableRecordError
		validation *models.ValidationError
		conflict   *models.ConcurrentModificationError
		illegal    *models.IllegalTransitionError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &duplicate):
		return "duplicate"
	case errors.As(err, &protected):
		return "protected"
	case errors.As(err, &immutable):
		return "immutable"
	case errors.As(err, &validation):
		return "invalid"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &illegal):
		return "illegal_transition"
	case errors.Is(err, models.ErrUnauthenticated):
		return "unauthenticated"
	}
	return "error"
}
