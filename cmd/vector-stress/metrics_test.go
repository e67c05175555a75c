package main

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/grafana/rawvec/pkg/memory"
)

func TestWriteMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	m.operations.WithLabelValues("push", "ok").Add(3)
	m.faults.WithLabelValues("copy").Inc()

	r, err := memory.Allocate[int](4, 0)
	require.NoError(t, err)
	defer r.Release()

	var buf strings.Builder
	require.NoError(t, writeMetrics(&buf, reg))
	out := buf.String()

	require.Contains(t, out, `rawvec_stress_operations_total{op="push",outcome="ok"} 3`)
	require.Contains(t, out, `rawvec_stress_injected_faults_total{hook="copy"} 1`)
	require.Contains(t, out, "# TYPE rawvec_memory_live_blocks gauge")
	require.Contains(t, out, "# TYPE rawvec_memory_allocations_total counter")
}
