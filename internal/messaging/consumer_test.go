package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/likes-go/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func startConsumer(t *testing.T, sub *mockSubscriber, handler messaging.Handler[testEvent]) *messaging.Consumer[testEvent] {
	t.Helper()

	consumer := messaging.NewConsumer[testEvent](sub, "test.topic", handler, zap.NewNop())
	require.NoError(t, consumer.Start(context.Background()))

	t.Cleanup(func() { _ = consumer.Shutdown() })

	return consumer
}

func TestConsumer_Start(t *testing.T) {
	t.Run("starts successfully", func(t *testing.T) {
		consumer := startConsumer(t, newMockSubscriber(), func(_ context.Context, _ *testEvent) error { return nil })

		assert.Equal(t, "test.topic", consumer.Topic())
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer[testEvent](
			sub,
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		err := consumer.Start(context.Background())

		require.Error(t, err)
		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("acks on successful handling", func(t *testing.T) {
		sub := newMockSubscriber()
		received := make(chan *testEvent, 1)

		startConsumer(t, sub, func(_ context.Context, event *testEvent) error {
			received <- event

			return nil
		})

		payload, _ := json.Marshal(&testEvent{ID: "123", Name: "test"})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
			event := <-received
			assert.Equal(t, "123", event.ID)
			assert.Equal(t, "test", event.Name)
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}
	})

	t.Run("acks and drops undecodable payload", func(t *testing.T) {
		sub := newMockSubscriber()
		called := false

		startConsumer(t, sub, func(_ context.Context, _ *testEvent) error {
			called = true

			return nil
		})

		msg := message.NewMessage(uuid.NewString(), []byte("invalid json"))

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
			assert.False(t, called)
		case <-msg.Nacked():
			t.Fatal("undecodable message should not be redelivered")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}
	})

	t.Run("nacks on handler error", func(t *testing.T) {
		sub := newMockSubscriber()

		startConsumer(t, sub, func(_ context.Context, _ *testEvent) error {
			return errors.New("handler error")
		})

		payload, _ := json.Marshal(&testEvent{ID: "123"})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Nacked():
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("shuts down gracefully", func(t *testing.T) {
		consumer := messaging.NewConsumer[testEvent](
			newMockSubscriber(),
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("is a no-op when never started", func(t *testing.T) {
		consumer := messaging.NewConsumer[testEvent](
			newMockSubscriber(),
			"test.topic",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		assert.NoError(t, consumer.Shutdown())
	})
}
