package naming

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

func TestFormatStepSubstitutesParameters(t *testing.T) {
	p := NewProvider()
	step := &scenario.StepDescriptor{
		Name:     "customer_has_<count>_items_in_basket",
		TypeHint: "given",
		Parameters: []scenario.ParameterDescriptor{
			scenario.Const("count", 3),
			scenario.Const("currency", "EUR"),
		},
	}

	placeholder, err := p.FormatStep(step, nil)
	require.NoError(t, err)
	require.Equal(t, "GIVEN customer has <?> items in basket [currency: <?>]", placeholder)

	rendered, err := p.FormatStep(step, []scenario.ParameterResult{
		{Name: "count", Value: "3"},
		{Name: "currency", Value: "EUR"},
	})
	require.NoError(t, err)
	require.Equal(t, "GIVEN customer has 3 items in basket [currency: EUR]", rendered)
}

func TestFormatScenario(t *testing.T) {
	name, err := NewProvider().FormatScenario(&scenario.ScenarioDescriptor{Name: "Successful_login"})
	require.NoError(t, err)
	require.Equal(t, "Successful login", name)

	_, err = NewProvider().FormatScenario(nil)
	require.Error(t, err)
	_, err = NewProvider().FormatStep(nil, nil)
	require.Error(t, err)
}
