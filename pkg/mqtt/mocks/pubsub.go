package mocks

import (
	"context"
	"sync"

	"github.com/absmach/rendezvous/pkg/mqtt"
)

var _ mqtt.PubSub = (*PubSub)(nil)

// PubSub records published messages in memory so tests can assert on
// round-completion notifications.
type PubSub struct {
	mu         sync.Mutex
	published  map[string][]any
	subscribed map[string]mqtt.Handler
}

func NewPubSub() *PubSub {
	return &PubSub{
		published:  make(map[string][]any),
		subscribed: make(map[string]mqtt.Handler),
	}
}

func (m *PubSub) Publish(_ context.Context, topic string, msg any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.published[topic] = append(m.published[topic], msg)

	return nil
}

func (m *PubSub) Subscribe(_ context.Context, topic string, handler mqtt.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribed[topic] = handler

	return nil
}

func (m *PubSub) Unsubscribe(_ context.Context, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subscribed, topic)

	return nil
}

func (m *PubSub) Disconnect(context.Context) error {
	return nil
}

// Published returns all messages published on the topic.
func (m *PubSub) Published(topic string) []any {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]any, len(m.published[topic]))
	copy(out, m.published[topic])

	return out
}
