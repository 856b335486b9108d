package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type closingContext struct {
	closed int
}

func (c *closingContext) Close(context.Context) error {
	c.closed++
	return nil
}

type ioContext struct {
	err error
}

func (c *ioContext) Close() error { return c.err }

func TestResolveBuildsFreshInstances(t *testing.T) {
	resolver := NewResolver()
	require.NoError(t, resolver.Register("db", func(context.Context) (any, error) {
		return &closingContext{}, nil
	}))

	first, err := resolver.Resolve(context.Background(), "db")
	require.NoError(t, err)
	second, err := resolver.Provider("db")(context.Background())
	require.NoError(t, err)
	require.NotSame(t, first.Value, second.Value)

	require.NotNil(t, first.Dispose)
	require.NoError(t, first.Dispose(context.Background()))
	require.Equal(t, 1, first.Value.(*closingContext).closed)
}

func TestResolveAdaptsIOCloser(t *testing.T) {
	resolver := NewResolver()
	closeErr := errors.New("flush failed")
	require.NoError(t, resolver.Register("files", func(context.Context) (any, error) {
		return &ioContext{err: closeErr}, nil
	}))

	resolved, err := resolver.Resolve(context.Background(), "files")
	require.NoError(t, err)
	require.ErrorIs(t, resolved.Dispose(context.Background()), closeErr)
}

func TestResolveFailures(t *testing.T) {
	resolver := NewResolver()
	_, err := resolver.Resolve(context.Background(), "missing")
	require.Error(t, err)

	boom := errors.New("boom")
	require.NoError(t, resolver.Register("broken", func(context.Context) (any, error) { return nil, boom }))
	_, err = resolver.Resolve(context.Background(), "broken")
	require.ErrorIs(t, err, boom)

	require.Error(t, resolver.Register("", func(context.Context) (any, error) { return nil, nil }))
	require.Error(t, resolver.Register("nil", nil))
	require.Equal(t, []string{"broken"}, resolver.Names())
}

func TestPlainValuesHaveNoDisposer(t *testing.T) {
	resolver := NewResolver()
	require.NoError(t, resolver.Register("plain", func(context.Context) (any, error) { return 42, nil }))
	resolved, err := resolver.Resolve(context.Background(), "plain")
	require.NoError(t, err)
	require.Equal(t, 42, resolved.Value)
	require.Nil(t, resolved.Dispose)
}
