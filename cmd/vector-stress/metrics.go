package main

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/grafana/rawvec/pkg/memory"
)

const metricsNamespace = "rawvec"

type metrics struct {
	operations *prometheus.CounterVec
	faults     *prometheus.CounterVec
	checks     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stress",
			Name:      "operations_total",
			Help:      "Total number of vector operations run, by operation and outcome.",
		}, []string{"op", "outcome"}),
		faults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stress",
			Name:      "injected_faults_total",
			Help:      "Total number of element hook failures injected, by hook.",
		}, []string{"hook"}),
		checks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stress",
			Name:      "checks_total",
			Help:      "Total number of invariant checks passed.",
		}),
	}

	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "memory",
		Name:      "live_blocks",
		Help:      "Number of storage blocks allocated and not yet released.",
	}, func() float64 { return float64(memory.Usage().LiveBlocks) })
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "memory",
		Name:      "live_bytes",
		Help:      "Number of bytes held by live storage blocks.",
	}, func() float64 { return float64(memory.Usage().LiveBytes) })
	promauto.With(reg).NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "memory",
		Name:      "allocations_total",
		Help:      "Total number of storage blocks allocated.",
	}, func() float64 { return float64(memory.Usage().Allocations) })
	promauto.With(reg).NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "memory",
		Name:      "allocation_failures_total",
		Help:      "Total number of storage block allocations refused.",
	}, func() float64 { return float64(memory.Usage().Failures) })

	return m
}

// writeMetrics writes everything gathered by g to w in the text exposition
// format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
