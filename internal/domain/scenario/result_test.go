package scenario

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarioResultStepLookupByPath(t *testing.T) {
	t.Parallel()

	parent := NewStepResult(StepInfo{Number: 2, Total: 2, Path: []int{2}, Name: "composite"})
	child := NewStepResult(StepInfo{Number: 1, GroupPrefix: "2.", Total: 1, Path: []int{2, 1}, Name: "child"})
	parent.SubSteps = []*StepResult{child}
	result := &ScenarioResult{Steps: []*StepResult{
		NewStepResult(StepInfo{Number: 1, Total: 2, Path: []int{1}}),
		parent,
	}}

	got, ok := result.Step(2, 1)
	require.True(t, ok)
	require.Same(t, child, got)
	require.Equal(t, "2.1", got.Info.Numeral())

	_, ok = result.Step(3)
	require.False(t, ok)
	_, ok = result.Step()
	require.False(t, ok)
	require.Len(t, result.AllSteps(), 3)
}

func TestStepResultCommentsAreConcurrencySafe(t *testing.T) {
	t.Parallel()

	result := NewStepResult(StepInfo{Number: 1, Total: 1})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.AddComment(Comment{Text: "note"})
			result.AddAttachment(Attachment{Name: "log"})
		}()
	}
	wg.Wait()
	require.Len(t, result.Comments(), 50)
	require.Len(t, result.Attachments(), 50)
}

func TestComposeDetails(t *testing.T) {
	t.Parallel()

	first := NewStepResult(StepInfo{Number: 1, Total: 3})
	second := NewStepResult(StepInfo{Number: 2, Total: 3})
	second.Details = "skipped on purpose"
	third := NewStepResult(StepInfo{Number: 3, Total: 3})
	third.Details = "boom\nat line 1"

	details := ComposeDetails("", []*StepResult{first, second, third})
	require.Equal(t, "Step 2: skipped on purpose\nStep 3: boom\n\tat line 1", details)
	require.Equal(t, "own\nStep 2: skipped on purpose", ComposeDetails("own", []*StepResult{second}))
}

func TestExpectedVerification(t *testing.T) {
	t.Parallel()

	expected := Expect(5)
	require.Equal(t, StatusNotRun, expected.Verify().Status)

	expected.SetActual(5)
	require.Equal(t, StatusPassed, expected.Verify().Status)

	expected.SetActual(7)
	verification := expected.Verify()
	require.Equal(t, StatusFailed, verification.Status)
	require.Contains(t, verification.Message, "expected: 5, but got: 7")
	require.Equal(t, "5 (actual 7)", expected.String())
}
