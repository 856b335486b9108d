package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

func TestCollectorCountsByLabel(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	c.IncCounter(ctx, ports.MetricScenariosTotal, map[string]string{"status": "passed"})
	c.IncCounter(ctx, ports.MetricScenariosTotal, map[string]string{"status": "passed"})
	c.IncCounter(ctx, ports.MetricScenariosTotal, map[string]string{"status": "failed"})

	expected := `
# HELP stagehand_scenarios_total Total number of finished scenarios
# TYPE stagehand_scenarios_total counter
stagehand_scenarios_total{status="failed"} 1
stagehand_scenarios_total{status="passed"} 2
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), ports.MetricScenariosTotal))
}

func TestCollectorGaugeAndHistogram(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	c.SetGauge(ctx, ports.MetricScenariosRunning, 3, nil)
	c.SetGauge(ctx, ports.MetricScenariosRunning, 2, nil)
	c.ObserveHistogram(ctx, ports.MetricStepDuration, 0.2, map[string]string{"depth": "1"})
	c.ObserveHistogram(ctx, ports.MetricStepDuration, 0.4, map[string]string{"depth": "1"})

	count, err := testutil.GatherAndCount(c.Registry(), ports.MetricScenariosRunning, ports.MetricStepDuration)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	expected := `
# HELP stagehand_scenarios_running Number of scenarios currently running
# TYPE stagehand_scenarios_running gauge
stagehand_scenarios_running 2
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), ports.MetricScenariosRunning))
}

func TestCollectorToleratesLabelDrift(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()

	c.IncCounter(ctx, ports.MetricStepsTotal, map[string]string{"status": "passed"})
	require.NotPanics(t, func() {
		c.IncCounter(ctx, ports.MetricStepsTotal, map[string]string{"other": "x"})
	})

	count, err := testutil.GatherAndCount(c.Registry(), ports.MetricStepsTotal)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
