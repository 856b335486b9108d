package suite

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/pkg/diff"
)

const maxOutputPreview = 40

// OutputExpectation is a verifiable parameter comparing a command's standard
// output with the expected text. Trailing newlines are not significant.
type OutputExpectation struct {
	mu       sync.Mutex
	want     string
	actual   string
	recorded bool
}

// ExpectOutput creates an OutputExpectation.
func ExpectOutput(want string) *OutputExpectation {
	return &OutputExpectation{want: want}
}

// SetActual records the observed output.
func (e *OutputExpectation) SetActual(output string) {
	e.mu.Lock()
	e.actual = output
	e.recorded = true
	e.mu.Unlock()
}

// Verify implements scenario.Verifiable.
func (e *OutputExpectation) Verify() scenario.ParameterVerification {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.recorded {
		return scenario.ParameterVerification{Status: scenario.StatusNotRun, Message: "output not recorded"}
	}
	want, got := normalizeOutput(e.want), normalizeOutput(e.actual)
	if want == got {
		return scenario.ParameterVerification{Status: scenario.StatusPassed}
	}
	return scenario.ParameterVerification{
		Status:  scenario.StatusFailed,
		Message: "output differs\n" + diff.Unified(want, got, "expected", "actual"),
	}
}

func (e *OutputExpectation) String() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	preview := strings.TrimRight(e.want, "\n")
	if len(preview) > maxOutputPreview {
		preview = preview[:maxOutputPreview] + "..."
	}
	return fmt.Sprintf("%q", preview)
}

func normalizeOutput(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimRight(text, "\n") + "\n"
}
