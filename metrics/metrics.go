// Package metrics exposes Prometheus instrumentation for streamcore
// transports. All collectors live in Registry; serve it with promhttp or
// merge it into an application registry with Register.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every streamcore collector.
var Registry = prometheus.NewRegistry()

var (
	dialsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamcore",
			Subsystem: "transport",
			Name:      "dials_total",
			Help:      "Completed dial operations by scheme and result",
		},
		[]string{"scheme", "result"},
	)

	acceptsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamcore",
			Subsystem: "transport",
			Name:      "accepts_total",
			Help:      "Completed accept operations by scheme and result",
		},
		[]string{"scheme", "result"},
	)

	bytesSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamcore",
			Subsystem: "stream",
			Name:      "sent_bytes_total",
			Help:      "Bytes written to streams",
		},
		[]string{"scheme"},
	)

	bytesReceived = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamcore",
			Subsystem: "stream",
			Name:      "received_bytes_total",
			Help:      "Bytes read from streams",
		},
		[]string{"scheme"},
	)

	openStreams = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "streamcore",
			Subsystem: "stream",
			Name:      "open",
			Help:      "Streams created and not yet freed",
		},
		[]string{"scheme"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// DialDone records the outcome of one dial.
func DialDone(scheme string, err error) {
	dialsTotal.WithLabelValues(scheme, result(err)).Inc()
}

// AcceptDone records the outcome of one accept.
func AcceptDone(scheme string, err error) {
	acceptsTotal.WithLabelValues(scheme, result(err)).Inc()
}

// Sent adds n written bytes.
func Sent(scheme string, n int) {
	if n > 0 {
		bytesSent.WithLabelValues(scheme).Add(float64(n))
	}
}

// Received adds n read bytes.
func Received(scheme string, n int) {
	if n > 0 {
		bytesReceived.WithLabelValues(scheme).Add(float64(n))
	}
}

// StreamOpened counts a new stream.
func StreamOpened(scheme string) {
	openStreams.WithLabelValues(scheme).Inc()
}

// StreamFreed counts a released stream.
func StreamFreed(scheme string) {
	openStreams.WithLabelValues(scheme).Dec()
}

// Register adds the streamcore collectors to reg. Collectors that are
// already registered there are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{dialsTotal, acceptsTotal, bytesSent, bytesReceived, openStreams} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
