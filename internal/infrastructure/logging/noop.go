package logging

import (
	"context"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

type noOpLogger struct{}

func (noOpLogger) Debug(context.Context, string, ...interface{}) {}

func (noOpLogger) Info(context.Context, string, ...interface{}) {}

func (noOpLogger) Warn(context.Context, string, ...interface{}) {}

func (noOpLogger) Error(context.Context, string, ...interface{}) {}

func (n noOpLogger) With(...interface{}) ports.Logger { return n }

// NewNoOpLogger returns a ports.Logger that discards all log entries.
func NewNoOpLogger() ports.Logger {
	return noOpLogger{}
}
