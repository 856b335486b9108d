package config

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
)

const maxNameLength = 200

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("step_name", func(fl validator.FieldLevel) bool {
			return isValidName(fl.Field().String())
		})

		_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			status, err := scenario.ParseStatus(fl.Field().String())
			return err == nil && status != scenario.StatusNotRun
		})

		v.RegisterStructValidation(validateStepActions, Step{})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

func validateStepActions(sl validator.StructLevel) {
	step := sl.Current().Interface().(Step)
	switch actions := step.Actions(); {
	case len(actions) == 0 && len(step.Background) == 0:
		sl.ReportError(step.Run, "Run", "run", "action", "")
	case len(actions) > 1:
		sl.ReportError(step.Run, "Run", "run", "single_action", strings.Join(actions, ","))
	}
	if step.ExpectExitCode != nil && strings.TrimSpace(step.Run) == "" {
		sl.ReportError(step.ExpectExitCode, "ExpectExitCode", "expect_exit_code", "required_with_run", "")
	}
	if step.ExpectOutput != nil && strings.TrimSpace(step.Run) == "" {
		sl.ReportError(step.ExpectOutput, "ExpectOutput", "expect_output", "required_with_run", "")
	}
}

func isValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || len(trimmed) > maxNameLength {
		return false
	}
	return !strings.ContainsAny(name, "\r\n\x00")
}
