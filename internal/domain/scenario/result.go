package scenario

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// StepInfo identifies a step within its scenario. The ordinal identity
// (Number, GroupPrefix, Total, Path) is fixed at creation; only Name is
// re-rendered as parameters resolve.
type StepInfo struct {
	Number      int
	GroupPrefix string
	Total       int
	Path        []int
	Name        string
}

// Numeral renders the hierarchical step number, e.g. "2.1".
func (i StepInfo) Numeral() string {
	return fmt.Sprintf("%s%d", i.GroupPrefix, i.Number)
}

func (i StepInfo) String() string {
	return fmt.Sprintf("%d/%d %s", i.Number, i.Total, i.Name)
}

// Comment is a free-form note added by a step body.
type Comment struct {
	Text string
	At   time.Time
}

// Attachment references a file produced by a step body.
type Attachment struct {
	Name      string
	Path      string
	MediaType string
}

// ParameterVerification is the outcome of checking a verifiable parameter.
type ParameterVerification struct {
	Status  ExecutionStatus
	Message string
}

// ParameterResult records an evaluated step parameter.
type ParameterResult struct {
	Name         string
	Value        string
	Verification *ParameterVerification
}

// StepResult captures the outcome of executing a single step. A StepResult is
// created once per execution attempt and mutated in place by the engine as
// the step progresses.
type StepResult struct {
	Info       StepInfo
	Status     ExecutionStatus
	Details    string
	Duration   time.Duration
	Failure    error
	Parameters []ParameterResult
	SubSteps   []*StepResult

	mu          sync.Mutex
	comments    []Comment
	attachments []Attachment
}

// NewStepResult creates a NotRun result with a fixed ordinal identity.
func NewStepResult(info StepInfo) *StepResult {
	path := make([]int, len(info.Path))
	copy(path, info.Path)
	info.Path = path
	return &StepResult{Info: info, Status: StatusNotRun}
}

// AddComment records a comment. Safe for concurrent use.
func (r *StepResult) AddComment(c Comment) {
	r.mu.Lock()
	r.comments = append(r.comments, c)
	r.mu.Unlock()
}

// Comments returns a snapshot of recorded comments.
func (r *StepResult) Comments() []Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Comment(nil), r.comments...)
}

// AddAttachment records an attachment. Safe for concurrent use.
func (r *StepResult) AddAttachment(a Attachment) {
	r.mu.Lock()
	r.attachments = append(r.attachments, a)
	r.mu.Unlock()
}

// Attachments returns a snapshot of recorded attachments.
func (r *StepResult) Attachments() []Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Attachment(nil), r.attachments...)
}

// Executed reports whether the step was attempted.
func (r *StepResult) Executed() bool {
	return r.Status != StatusNotRun
}

// Flatten returns this result followed by every nested sub-step, depth first.
func (r *StepResult) Flatten() []*StepResult {
	out := []*StepResult{r}
	for _, sub := range r.SubSteps {
		out = append(out, sub.Flatten()...)
	}
	return out
}

// ScenarioResult captures the outcome of a scenario run.
type ScenarioResult struct {
	RunID      string
	Name       string
	Labels     []string
	Categories []string
	Status     ExecutionStatus
	Details    string
	Duration   time.Duration
	Steps      []*StepResult
	Failure    error
}

// Step resolves a step by ordinal path, e.g. Step(2, 1) is step "2.1".
func (r *ScenarioResult) Step(path ...int) (*StepResult, bool) {
	if r == nil || len(path) == 0 {
		return nil, false
	}
	steps := r.Steps
	var current *StepResult
	for _, ordinal := range path {
		if ordinal < 1 || ordinal > len(steps) {
			return nil, false
		}
		current = steps[ordinal-1]
		steps = current.SubSteps
	}
	return current, true
}

// AllSteps returns every step result depth first.
func (r *ScenarioResult) AllSteps() []*StepResult {
	var out []*StepResult
	for _, step := range r.Steps {
		out = append(out, step.Flatten()...)
	}
	return out
}

// ComposeDetails renders "Step N: details" lines for every step carrying
// details, preceded by any own details.
func ComposeDetails(own string, steps []*StepResult) string {
	lines := make([]string, 0, len(steps)+1)
	if own != "" {
		lines = append(lines, own)
	}
	for _, step := range steps {
		if step.Details == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("Step %s: %s", step.Info.Numeral(), indent(step.Details)))
	}
	return strings.Join(lines, "\n")
}

func indent(text string) string {
	return strings.ReplaceAll(text, "\n", "\n\t")
}
