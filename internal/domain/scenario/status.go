package scenario

import "fmt"

// ExecutionStatus classifies the outcome of a step or scenario. Statuses are
// ordered by severity so that nested outcomes can be folded into their parent.
type ExecutionStatus int

const (
	// StatusNotRun marks a step that was never attempted.
	StatusNotRun ExecutionStatus = iota
	// StatusPassed marks a step that completed without failure.
	StatusPassed
	// StatusBypassed marks a step that was deliberately skipped.
	StatusBypassed
	// StatusIgnored marks a step hitting a known, expected gap.
	StatusIgnored
	// StatusFailed marks an unexpected failure.
	StatusFailed
)

var statusNames = [...]string{
	"not_run",
	"passed",
	"bypassed",
	"ignored",
	"failed",
}

func (s ExecutionStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s ExecutionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ExecutionStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus resolves a status from its textual name.
func ParseStatus(name string) (ExecutionStatus, error) {
	for i, candidate := range statusNames {
		if candidate == name {
			return ExecutionStatus(i), nil
		}
	}
	return StatusNotRun, fmt.Errorf("invalid execution status %q", name)
}

// Ranking assigns a severity rank to every status. NotRun and Passed are
// always the two lowest ranks and Failed is always the highest; the relative
// order of Bypassed and Ignored is configurable.
type Ranking struct {
	name string
	rank [len(statusNames)]int
}

var (
	// BypassedBelowIgnored is the default ranking:
	// NotRun < Passed < Bypassed < Ignored < Failed.
	BypassedBelowIgnored = Ranking{name: "bypassed_below_ignored", rank: [...]int{0, 1, 2, 3, 4}}
	// IgnoredBelowBypassed swaps the two soft outcomes:
	// NotRun < Passed < Ignored < Bypassed < Failed.
	IgnoredBelowBypassed = Ranking{name: "ignored_below_bypassed", rank: [...]int{0, 1, 3, 2, 4}}

	// DefaultRanking is used by Merge and Severe.
	DefaultRanking = BypassedBelowIgnored
)

// ParseRanking resolves a ranking by name. An empty name yields DefaultRanking.
func ParseRanking(name string) (Ranking, error) {
	switch name {
	case "":
		return DefaultRanking, nil
	case BypassedBelowIgnored.name:
		return BypassedBelowIgnored, nil
	case IgnoredBelowBypassed.name:
		return IgnoredBelowBypassed, nil
	}
	return Ranking{}, fmt.Errorf("unknown status ranking %q", name)
}

// Name returns the configuration name of the ranking.
func (r Ranking) Name() string {
	if r.name == "" {
		return DefaultRanking.name
	}
	return r.name
}

// Rank returns the severity rank of s.
func (r Ranking) Rank(s ExecutionStatus) int {
	if r.name == "" {
		r = DefaultRanking
	}
	if s < 0 || int(s) >= len(r.rank) {
		return r.rank[StatusFailed]
	}
	return r.rank[s]
}

// Merge returns the more severe of a and b.
func (r Ranking) Merge(a, b ExecutionStatus) ExecutionStatus {
	if r.Rank(b) > r.Rank(a) {
		return b
	}
	return a
}

// MergeAll folds every status into a single most severe one.
func (r Ranking) MergeAll(statuses ...ExecutionStatus) ExecutionStatus {
	merged := StatusNotRun
	for _, s := range statuses {
		merged = r.Merge(merged, s)
	}
	return merged
}

// AtLeast reports whether s is as severe as threshold or worse.
func (r Ranking) AtLeast(s, threshold ExecutionStatus) bool {
	return r.Rank(s) >= r.Rank(threshold)
}

// Merge returns the more severe of a and b under DefaultRanking.
func Merge(a, b ExecutionStatus) ExecutionStatus {
	return DefaultRanking.Merge(a, b)
}

// MergeAll folds statuses under DefaultRanking.
func MergeAll(statuses ...ExecutionStatus) ExecutionStatus {
	return DefaultRanking.MergeAll(statuses...)
}
