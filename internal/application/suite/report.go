package suite

import (
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

// Report summarizes a suite run.
type Report struct {
	Suite    string
	Status   scenario.ExecutionStatus
	Duration time.Duration
	Results  []*scenario.ScenarioResult
	Counts   map[scenario.ExecutionStatus]int
}

func newReport(name string, ranking scenario.Ranking, results []*scenario.ScenarioResult, elapsed time.Duration) *Report {
	report := &Report{
		Suite:    name,
		Status:   scenario.StatusNotRun,
		Duration: elapsed,
		Results:  results,
		Counts:   make(map[scenario.ExecutionStatus]int),
	}
	for _, result := range results {
		report.Counts[result.Status]++
		report.Status = ranking.Merge(report.Status, result.Status)
	}
	return report
}

// Failed reports whether any scenario failed.
func (r *Report) Failed() bool {
	return r != nil && r.Status == scenario.StatusFailed
}

// Steps returns how many steps ran across every scenario, nested ones included.
func (r *Report) Steps() int {
	total := 0
	for _, result := range r.Results {
		for _, step := range result.AllSteps() {
			if step.Executed() {
				total++
			}
		}
	}
	return total
}
