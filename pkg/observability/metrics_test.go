package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	cfg := domain.NewConfig("idle").
		AddState("idle", map[string]string{"start": "running"}).
		AddState("running", map[string]string{"stop": "idle"})

	m, err := rewind.New(cfg, rewind.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	_, err = m.Trigger("start")
	require.NoError(t, err)
	_, err = m.Trigger("start")
	require.Error(t, err)
	_, err = m.ChangeState("nowhere")
	require.Error(t, err)
	m.Undo()
	m.Reset()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("trigger")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("undo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("reset")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejections.WithLabelValues("trigger")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejections.WithLabelValues("change")))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "rewind_transitions_total")
	assert.Contains(t, names, "rewind_rejections_total")
	assert.Contains(t, names, "rewind_history_length")
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics(nil)
	})
}
