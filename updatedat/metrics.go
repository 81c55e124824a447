package updatedat

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mickamy/ormtouch/orm"
)

type metrics struct {
	decisions *prometheus.CounterVec
}

func newMetrics(r prometheus.Registerer) *metrics {
	m := &metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ormtouch",
			Name:      "updated_at_decisions_total",
			Help:      "Update statements seen by the updated_at interceptor, by entry point and decision.",
		}, []string{"op", "decision"}),
	}
	if r != nil {
		r.MustRegister(m.decisions)
	}
	return m
}

func (m *metrics) observe(op orm.UpdateOp, d Decision) {
	m.decisions.WithLabelValues(op.String(), string(d)).Inc()
}
