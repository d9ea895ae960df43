package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/likes-go/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	name        string
	order       *[]string
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}

	return m.shutdownErr
}

func TestGroup_Start(t *testing.T) {
	t.Run("starts all members", func(t *testing.T) {
		group := messaging.NewGroup(newMockSubscriber(), zap.NewNop())
		first := &mockRunnable{}
		second := &mockRunnable{}

		group.Add(first)
		group.Add(second)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, first.started)
		assert.True(t, second.started)
		assert.Equal(t, 2, group.Len())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		group := messaging.NewGroup(newMockSubscriber(), zap.NewNop())
		first := &mockRunnable{}
		second := &mockRunnable{startErr: errors.New("start error")}

		group.Add(first)
		group.Add(second)

		err := group.Start(context.Background())

		require.ErrorContains(t, err, "start error")
		assert.True(t, first.shutdown)
		assert.False(t, second.started)
	})
}

func TestGroup_Shutdown(t *testing.T) {
	t.Run("stops members in reverse order then closes", func(t *testing.T) {
		var order []string

		sub := newMockSubscriber()
		group := messaging.NewGroup(sub, zap.NewNop())
		group.Add(&mockRunnable{name: "watcher", order: &order})
		group.Add(&mockRunnable{name: "scheduler", order: &order})
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())
		assert.Equal(t, []string{"scheduler", "watcher"}, order)
		assert.True(t, sub.closed)
	})

	t.Run("reports every failure but stops all", func(t *testing.T) {
		group := messaging.NewGroup(nil, zap.NewNop())
		first := &mockRunnable{shutdownErr: errors.New("shutdown error 1")}
		second := &mockRunnable{shutdownErr: errors.New("shutdown error 2")}

		group.Add(first)
		group.Add(second)
		require.NoError(t, group.Start(context.Background()))

		err := group.Shutdown()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "shutdown error 1")
		assert.Contains(t, err.Error(), "shutdown error 2")
		assert.True(t, first.shutdown)
		assert.True(t, second.shutdown)
	})
}
