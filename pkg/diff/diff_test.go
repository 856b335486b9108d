package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnifiedIdenticalContent(t *testing.T) {
	require.Empty(t, Unified("a\nb\n", "a\nb\n", "expected", "actual"))
}

func TestUnifiedSingleLineChange(t *testing.T) {
	out := Unified("line1\nline2\nline3\n", "line1\nmodified\nline3\n", "expected", "actual")

	require.Equal(t, strings.Join([]string{
		"--- expected",
		"+++ actual",
		"@@ -1,3 +1,3 @@",
		" line1",
		"-line2",
		"+modified",
		" line3",
	}, "\n")+"\n", out)
}

func TestUnifiedAddedLines(t *testing.T) {
	out := Unified("a\n", "a\nb\nc\n", "want", "got")
	require.Contains(t, out, "@@ -1,1 +1,3 @@")
	require.Contains(t, out, "+b\n+c\n")
	require.NotContains(t, out, "-a")
}

func TestUnifiedEmptyExpected(t *testing.T) {
	out := Unified("", "only\n", "want", "got")
	require.Contains(t, out, "@@ -1,0 +1,1 @@")
	require.Contains(t, out, "+only")
}

func TestUnifiedTruncatesLongDiffs(t *testing.T) {
	var expected, actual strings.Builder
	for i := 0; i < maxDiffLines; i++ {
		expected.WriteString("old\n")
		actual.WriteString("new\n")
	}

	out := Unified(expected.String(), actual.String(), "want", "got")
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, maxDiffLines+1)
	require.Equal(t, truncateMessage, lines[len(lines)-1])
}
