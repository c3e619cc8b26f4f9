package client

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/bookclub/internal/codec"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
	OutcomeTimeout     = "timeout"
	OutcomeCanceled    = "canceled"
	OutcomeNetwork     = "network"
)

// Metrics records request counts and latency.
type Metrics struct {
	mu sync.Mutex

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inUse    prometheus.GaugeFunc

	registerer prometheus.Registerer
	registered bool
}

// NewMetrics creates the collectors. codecs, when set, backs the
// handles-in-use gauge. A nil registerer means the default registry.
func NewMetrics(registerer prometheus.Registerer, codecs *codec.Pool) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		registerer: registerer,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookclub",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the bookclub API by method and outcome",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookclub",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Time from sending a request to reading the full response",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		inUse: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "bookclub",
			Subsystem: "codec",
			Name:      "handles_in_use",
			Help:      "Codec handles currently checked out",
		}, func() float64 {
			if codecs == nil {
				return 0
			}
			return float64(codecs.InUse())
		}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.inUse} {
		if err := m.registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	m.registered = true
	return nil
}

func (m *Metrics) observe(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func statusOutcome(status int) string {
	switch {
	case status >= 500:
		return OutcomeServerError
	case status >= 400:
		return OutcomeClientError
	default:
		return OutcomeOK
	}
}

func kindOutcome(k Kind) string {
	switch k {
	case KindTimeout:
		return OutcomeTimeout
	case KindCanceled:
		return OutcomeCanceled
	default:
		return OutcomeNetwork
	}
}
