package config

import (
	"fmt"

	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

// ValidateSuite performs structural and cross-field validation on an entire suite.
func ValidateSuite(suite *Suite) error {
	if suite == nil {
		return stagehanderrors.NewValidationError("suite", "suite is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(suite); err != nil {
		return convertValidationError(err)
	}

	if _, err := suite.Settings.EffectiveRanking(); err != nil {
		return stagehanderrors.NewValidationError("settings.ranking", err.Error(), err)
	}
	if _, err := suite.Settings.EffectiveAbortThreshold(); err != nil {
		return stagehanderrors.NewValidationError("settings.abort_threshold", err.Error(), err)
	}

	seen := make(map[string]int, len(suite.Scenarios))
	for i, sc := range suite.Scenarios {
		if first, exists := seen[sc.Name]; exists {
			return stagehanderrors.NewValidationError(fieldForScenario(i, "name"), fmt.Sprintf("duplicate scenario name %q (first declared at scenarios[%d])", sc.Name, first), nil)
		}
		seen[sc.Name] = i

		if sc.Workspace == "" {
			continue
		}
		if _, ok := suite.Workspaces[sc.Workspace]; !ok {
			return stagehanderrors.NewValidationError(fieldForScenario(i, "workspace"), fmt.Sprintf("workspace %q is not declared", sc.Workspace), nil)
		}
	}

	return nil
}
