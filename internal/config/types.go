package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

// Suite represents a full stagehand suite document.
type Suite struct {
	Version     string               `yaml:"version" validate:"required,semver"`
	Name        string               `yaml:"name" validate:"required,min=1,max=100"`
	Description string               `yaml:"description,omitempty"`
	Settings    Settings             `yaml:"settings,omitempty"`
	Workspaces  map[string]Workspace `yaml:"workspaces,omitempty" validate:"omitempty,dive,keys,step_name,endkeys"`
	Scenarios   []Scenario           `yaml:"scenarios" validate:"required,min=1,dive"`
}

// Workspace is a named working directory and environment that scenarios can
// share by reference. Each scenario still gets its own instance.
type Workspace struct {
	WorkDir string            `yaml:"workdir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Settings holds suite-wide execution parameters.
type Settings struct {
	MaxConcurrency int      `yaml:"max_concurrency,omitempty" validate:"omitempty,min=1,max=256"`
	AbortThreshold string   `yaml:"abort_threshold,omitempty" validate:"omitempty,severity"`
	Ranking        string   `yaml:"ranking,omitempty" validate:"omitempty,oneof=bypassed_below_ignored ignored_below_bypassed"`
	StepTimeout    Duration `yaml:"step_timeout,omitempty"`
	StackDepth     int      `yaml:"stack_depth,omitempty" validate:"omitempty,min=1,max=64"`
	LogLevel       string   `yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Shell          string   `yaml:"shell,omitempty"`
}

// Scenario is one independently admitted unit of the suite.
type Scenario struct {
	Name       string            `yaml:"name" validate:"required,step_name"`
	Labels     []string          `yaml:"labels,omitempty" validate:"omitempty,dive,min=1"`
	Categories []string          `yaml:"categories,omitempty" validate:"omitempty,dive,min=1"`
	Workspace  string            `yaml:"workspace,omitempty"`
	Env        map[string]string `yaml:"env,omitempty" validate:"excluded_with=Workspace"`
	WorkDir    string            `yaml:"workdir,omitempty" validate:"excluded_with=Workspace"`
	Steps      []Step            `yaml:"steps" validate:"required,min=1,dive"`
}

// Step describes a single step. Exactly one of Run, Bypass, Ignore or Steps
// selects what the step does; Background commands may accompany any of them.
type Step struct {
	Name              string            `yaml:"name" validate:"required,step_name"`
	Kind              string            `yaml:"kind,omitempty" validate:"omitempty,oneof=given when then and but"`
	Run               string            `yaml:"run,omitempty"`
	Bypass            string            `yaml:"bypass,omitempty"`
	Ignore            string            `yaml:"ignore,omitempty"`
	ExpectExitCode    *int              `yaml:"expect_exit_code,omitempty" validate:"omitempty,min=0,max=255"`
	ExpectOutput      *string           `yaml:"expect_output,omitempty"`
	Background        []string          `yaml:"background,omitempty" validate:"omitempty,dive,min=1"`
	Env               map[string]string `yaml:"env,omitempty"`
	Timeout           Duration          `yaml:"timeout,omitempty"`
	ContinueOnFailure bool              `yaml:"continue_on_failure,omitempty"`
	Steps             []Step            `yaml:"steps,omitempty" validate:"omitempty,dive"`
}

// Actions lists the mutually exclusive actions set on the step.
func (s Step) Actions() []string {
	var actions []string
	if strings.TrimSpace(s.Run) != "" {
		actions = append(actions, "run")
	}
	if s.Bypass != "" {
		actions = append(actions, "bypass")
	}
	if s.Ignore != "" {
		actions = append(actions, "ignore")
	}
	if len(s.Steps) > 0 {
		actions = append(actions, "steps")
	}
	return actions
}

// Duration is a time.Duration decoded from strings such as "1m30s".
type Duration time.Duration

// UnmarshalYAML parses Go duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, raw)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: duration %q must not be negative", value.Line, raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// EffectiveRanking resolves the configured status ranking.
func (s Settings) EffectiveRanking() (scenario.Ranking, error) {
	return scenario.ParseRanking(s.Ranking)
}

// EffectiveAbortThreshold resolves the status at which sibling steps stop
// running. It defaults to failed.
func (s Settings) EffectiveAbortThreshold() (scenario.ExecutionStatus, error) {
	if s.AbortThreshold == "" {
		return scenario.StatusFailed, nil
	}
	return scenario.ParseStatus(s.AbortThreshold)
}

// EffectiveLogLevel returns the configured log level, defaulting to info.
func (s Settings) EffectiveLogLevel() string {
	if s.LogLevel == "" {
		return "info"
	}
	return s.LogLevel
}

// CountSteps returns the number of steps in the scenario, nested ones included.
func (s Scenario) CountSteps() int {
	return countSteps(s.Steps)
}

func countSteps(steps []Step) int {
	total := len(steps)
	for _, step := range steps {
		total += countSteps(step.Steps)
	}
	return total
}
