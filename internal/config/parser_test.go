package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

const validSuite = `version: "1.0"
name: "Checkout suite"
settings:
  max_concurrency: 4
  abort_threshold: ignored
  ranking: ignored_below_bypassed
  step_timeout: 30s
  log_level: debug
scenarios:
  - name: guest_checkout
    labels: [smoke]
    categories: [payments]
    env:
      BASE_URL: http://localhost:8080
    steps:
      - name: cart_has_<items>_items
        kind: given
        run: "echo 3"
      - name: pay
        kind: when
        run: "exit 0"
        expect_exit_code: 0
        timeout: 5s
      - name: receipts
        continue_on_failure: true
        steps:
          - name: email sent
            run: "true"
          - name: sms sent
            bypass: "sms gateway disabled in CI"
`

func TestParseSuite(t *testing.T) {
	t.Parallel()

	invalidYAML := `version: [1, 0]
name: "Broken"
`

	missingScenarios := `version: "1.0"
name: "No scenarios"
`

	badVersion := `version: "beta"
name: "Bad Version"
scenarios:
  - name: one
    steps:
      - name: step
        run: "echo"
`

	unknownKey := `version: "1.0"
name: "Typo"
scenarios:
  - name: one
    stepz: []
`

	badDuration := `version: "1.0"
name: "Durations"
settings:
  step_timeout: soon
scenarios:
  - name: one
    steps:
      - name: step
        run: "echo"
`

	cases := []struct {
		name     string
		contents string
		assert   func(t *testing.T, suite *Suite, err error)
	}{
		{
			name:     "valid suite is parsed",
			contents: validSuite,
			assert: func(t *testing.T, suite *Suite, err error) {
				require.NoError(t, err)
				require.NotNil(t, suite)
				require.Equal(t, "Checkout suite", suite.Name)
				require.Equal(t, 4, suite.Settings.MaxConcurrency)
				require.Equal(t, 30*time.Second, suite.Settings.StepTimeout.Std())
				require.Len(t, suite.Scenarios, 1)

				sc := suite.Scenarios[0]
				require.Equal(t, []string{"smoke"}, sc.Labels)
				require.Equal(t, 5, sc.CountSteps())
				require.NotNil(t, sc.Steps[1].ExpectExitCode)
				require.Equal(t, 0, *sc.Steps[1].ExpectExitCode)
				require.True(t, sc.Steps[2].ContinueOnFailure)
				require.Equal(t, "sms gateway disabled in CI", sc.Steps[2].Steps[1].Bypass)

				ranking, err := suite.Settings.EffectiveRanking()
				require.NoError(t, err)
				require.Equal(t, scenario.IgnoredBelowBypassed, ranking)
				threshold, err := suite.Settings.EffectiveAbortThreshold()
				require.NoError(t, err)
				require.Equal(t, scenario.StatusIgnored, threshold)
			},
		},
		{
			name:     "invalid yaml returns parse error",
			contents: invalidYAML,
			assert: func(t *testing.T, suite *Suite, err error) {
				var parseErr *stagehanderrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Contains(t, parseErr.Message, "cannot unmarshal")
				require.Equal(t, 1, parseErr.Line)
			},
		},
		{
			name:     "unknown keys are rejected",
			contents: unknownKey,
			assert: func(t *testing.T, suite *Suite, err error) {
				var parseErr *stagehanderrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Contains(t, parseErr.Message, "stepz")
			},
		},
		{
			name:     "bad durations are rejected",
			contents: badDuration,
			assert: func(t *testing.T, suite *Suite, err error) {
				var parseErr *stagehanderrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Contains(t, parseErr.Message, `invalid duration "soon"`)
				require.Equal(t, 4, parseErr.Line)
			},
		},
		{
			name:     "missing required fields returns validation error",
			contents: missingScenarios,
			assert: func(t *testing.T, suite *Suite, err error) {
				var validationErr *stagehanderrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Message, "scenarios")
			},
		},
		{
			name:     "schema version must follow major.minor",
			contents: badVersion,
			assert: func(t *testing.T, suite *Suite, err error) {
				var validationErr *stagehanderrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				require.Contains(t, validationErr.Message, "version")
			},
		},
		{
			name:     "empty document returns parse error",
			contents: "",
			assert: func(t *testing.T, suite *Suite, err error) {
				var parseErr *stagehanderrors.ParseError
				require.ErrorAs(t, err, &parseErr)
				require.Contains(t, parseErr.Message, "empty")
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeTempSuite(t, tc.contents)
			suite, err := ParseSuite(path)
			tc.assert(t, suite, err)
			if err != nil {
				require.Nil(t, suite)
			}
		})
	}
}

func TestParseSuiteMissingFile(t *testing.T) {
	_, err := ParseSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	var parseErr *stagehanderrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func writeTempSuite(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
