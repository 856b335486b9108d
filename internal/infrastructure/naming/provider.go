// Package naming renders step and scenario display names.
package naming

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// Placeholder is rendered for parameters that are not evaluated yet.
const Placeholder = "<?>"

// Provider renders names from raw descriptor names:
//   - underscores become spaces ("Given_a_user" -> "Given a user")
//   - "<param>" tokens are substituted with evaluated parameter values
//   - parameters not referenced by a token are appended as "[name: value]"
//   - a type hint is prepended in upper case ("GIVEN a user")
type Provider struct{}

// NewProvider creates a Provider.
func NewProvider() *Provider {
	return &Provider{}
}

// FormatStep implements ports.NameProvider.
func (p *Provider) FormatStep(step *scenario.StepDescriptor, params []scenario.ParameterResult) (string, error) {
	if step == nil {
		return "", fmt.Errorf("step descriptor is nil")
	}

	name := humanize(step.Name)
	var unreferenced []string
	for i, decl := range step.Parameters {
		value := Placeholder
		if params != nil && i < len(params) {
			value = params[i].Value
		}
		token := "<" + decl.Name + ">"
		if strings.Contains(name, token) {
			name = strings.ReplaceAll(name, token, value)
			continue
		}
		unreferenced = append(unreferenced, fmt.Sprintf("%s: %s", decl.Name, value))
	}
	if len(unreferenced) > 0 {
		name = fmt.Sprintf("%s [%s]", name, strings.Join(unreferenced, ", "))
	}
	if hint := strings.TrimSpace(step.TypeHint); hint != "" {
		name = strings.ToUpper(hint) + " " + name
	}
	return name, nil
}

// FormatScenario implements ports.NameProvider.
func (p *Provider) FormatScenario(desc *scenario.ScenarioDescriptor) (string, error) {
	if desc == nil {
		return "", fmt.Errorf("scenario descriptor is nil")
	}
	return humanize(desc.Name), nil
}

func humanize(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
}

var _ ports.NameProvider = (*Provider)(nil)
