package submit

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pilacorp/go-device-sdk/envelope"
)

const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeInvalid   = "invalid"
	outcomeTransport = "transport_error"
)

type metrics struct {
	submissions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lcore",
			Subsystem: "device",
			Name:      "submissions_total",
			Help:      "Envelopes submitted to the node, by type and outcome.",
		}, []string{"type", "outcome"}),
	}
	if err := reg.Register(m.submissions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.submissions = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return m
}

func (m *metrics) observe(t envelope.MessageType, outcome string) {
	m.submissions.WithLabelValues(string(t), outcome).Inc()
}
