package suite

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/config"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// fakeCommands answers commands from a table keyed by command line.
type fakeCommands struct {
	mu      sync.Mutex
	results map[string]ports.CommandResult
	errs    map[string]error
	block   map[string]bool
	calls   []ports.Command
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		results: make(map[string]ports.CommandResult),
		errs:    make(map[string]error),
		block:   make(map[string]bool),
	}
}

func (f *fakeCommands) Run(ctx context.Context, cmd ports.Command) (ports.CommandResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	res, err, block := f.results[cmd.Line], f.errs[cmd.Line], f.block[cmd.Line]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ports.CommandResult{ExitCode: -1}, ctx.Err()
	}
	return res, err
}

func (f *fakeCommands) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		out = append(out, call.Line)
	}
	return out
}

func (f *fakeCommands) call(line string) (ports.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if call.Line == line {
			return call, true
		}
	}
	return ports.Command{}, false
}

func parseSuite(t *testing.T, doc string) *config.Suite {
	t.Helper()
	suite, err := config.ParseSuiteBytes("suite.yaml", []byte(strings.TrimLeft(doc, "\n")))
	require.NoError(t, err)
	return suite
}
