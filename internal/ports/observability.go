package ports

import "context"

// MetricsCollector records quantitative observability signals. The interface is
// intentionally generic so adapters can back onto Prometheus or any other
// backend. Standard metric names include:
//   - Counters:
//     stagehand_scenarios_total{status="passed|bypassed|ignored|failed"}
//     stagehand_steps_total{status="..."}
//   - Gauges:
//     stagehand_scenarios_running
//   - Histograms:
//     stagehand_scenario_duration_seconds
//     stagehand_step_duration_seconds{depth="..."}
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// Standard metric names.
const (
	MetricScenariosTotal   = "stagehand_scenarios_total"
	MetricStepsTotal       = "stagehand_steps_total"
	MetricScenariosRunning = "stagehand_scenarios_running"
	MetricScenarioDuration = "stagehand_scenario_duration_seconds"
	MetricStepDuration     = "stagehand_step_duration_seconds"
)
