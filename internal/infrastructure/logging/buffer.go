package logging

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

const defaultBufferLimit = 1000

// Level identifies the severity of a buffered entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Entry is a buffered log entry.
type Entry struct {
	Ctx    context.Context
	Level  Level
	Msg    string
	Fields []interface{}
}

// Field returns the value recorded under key, if any.
func (e Entry) Field(key string) (interface{}, bool) {
	for i := 0; i+1 < len(e.Fields); i += 2 {
		if k, ok := e.Fields[i].(string); ok && k == key {
			return e.Fields[i+1], true
		}
	}
	return nil, false
}

// Buffer is a ports.Logger that keeps entries in memory. The CLI logs into a
// buffer until the suite settings select the real log level, then replays
// the buffer; tests use it to inspect what was logged.
type Buffer struct {
	store  *entryStore
	fields []interface{}
}

type entryStore struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

// NewBuffer creates a buffer keeping at most limit entries (defaults to 1000).
// The oldest entries are dropped first.
func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = defaultBufferLimit
	}
	return &Buffer{store: &entryStore{limit: limit}}
}

func (b *Buffer) Debug(ctx context.Context, msg string, fields ...interface{}) {
	b.add(ctx, LevelDebug, msg, fields)
}

func (b *Buffer) Info(ctx context.Context, msg string, fields ...interface{}) {
	b.add(ctx, LevelInfo, msg, fields)
}

func (b *Buffer) Warn(ctx context.Context, msg string, fields ...interface{}) {
	b.add(ctx, LevelWarn, msg, fields)
}

func (b *Buffer) Error(ctx context.Context, msg string, fields ...interface{}) {
	b.add(ctx, LevelError, msg, fields)
}

// With returns a child logger sharing the same storage.
func (b *Buffer) With(fields ...interface{}) ports.Logger {
	next := append(append([]interface{}{}, b.fields...), fields...)
	return &Buffer{store: b.store, fields: next}
}

func (b *Buffer) add(ctx context.Context, level Level, msg string, fields []interface{}) {
	if b == nil || b.store == nil {
		return
	}
	entry := Entry{
		Ctx:    ctx,
		Level:  level,
		Msg:    msg,
		Fields: append(append([]interface{}{}, b.fields...), fields...),
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == s.limit {
		copy(s.entries, s.entries[1:])
		s.entries[len(s.entries)-1] = entry
		return
	}
	s.entries = append(s.entries, entry)
}

// Entries returns a snapshot of the buffered entries.
func (b *Buffer) Entries() []Entry {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return append([]Entry(nil), b.store.entries...)
}

// Flush replays buffered entries into delegate, preserving order, and
// empties the buffer.
func (b *Buffer) Flush(delegate ports.Logger) {
	if delegate == nil {
		return
	}
	b.store.mu.Lock()
	entries := b.store.entries
	b.store.entries = nil
	b.store.mu.Unlock()

	for _, entry := range entries {
		switch entry.Level {
		case LevelDebug:
			delegate.Debug(entry.Ctx, entry.Msg, entry.Fields...)
		case LevelWarn:
			delegate.Warn(entry.Ctx, entry.Msg, entry.Fields...)
		case LevelError:
			delegate.Error(entry.Ctx, entry.Msg, entry.Fields...)
		default:
			delegate.Info(entry.Ctx, entry.Msg, entry.Fields...)
		}
	}
}

var _ ports.Logger = (*Buffer)(nil)
