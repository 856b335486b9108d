// Package diff renders line-oriented unified diffs for verification messages.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 200
	truncateMessage = "... (diff truncated) ..."
)

// Unified renders a unified diff of expected and actual, line by line.
// It returns an empty string when both are identical. Output longer than
// maxDiffLines is truncated with a marker line.
func Unified(expected, actual, expectedLabel, actualLabel string) string {
	if expected == actual {
		return ""
	}

	dmp := diffmatchpatch.New()
	expChars, actChars, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(expChars, actChars, false), lines)

	out := []string{
		"--- " + expectedLabel,
		"+++ " + actualLabel,
		fmt.Sprintf("@@ -1,%d +1,%d @@", countLines(expected), countLines(actual)),
	}
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitLines(d.Text) {
			out = append(out, prefix+line)
		}
	}

	if len(out) > maxDiffLines {
		out = append(out[:maxDiffLines], truncateMessage)
	}
	return strings.Join(out, "\n") + "\n"
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(text string) int {
	return len(splitLines(text))
}
