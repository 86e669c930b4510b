package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LocalBroker delivers events to subscribers of the same process, synchronously and
// in subscription order. It is used when no message broker is configured.
type LocalBroker struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handlers
	order  map[string][]int
}

func NewLocalBroker(logger *zap.Logger) *LocalBroker {
	return &LocalBroker{
		logger: logger,
		subs:   make(map[string]map[int]Handlers),
		order:  make(map[string][]int),
	}
}

func (b *LocalBroker) Publish(ctx context.Context, topic string, kind Kind, payload any) error {
	ev, err := newEvent(topic, kind, payload)
	if err != nil {
		return err
	}

	b.mu.RLock()
	handlers := make([]Handlers, 0, len(b.order[topic]))
	for _, id := range b.order[topic] {
		handlers = append(handlers, b.subs[topic][id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, ev); err != nil {
			b.logger.Warn("Realtime handler failed",
				zap.String("topic", topic),
				zap.String("kind", string(kind)),
				zap.Error(err))
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(topic string, h Handlers) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handlers)
	}
	b.subs[topic][id] = h
	b.order[topic] = append(b.order[topic], id)
	return &localSubscription{broker: b, topic: topic, id: id}, nil
}

func (b *LocalBroker) unsubscribe(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[topic], id)
	ids := b.order[topic]
	for i, v := range ids {
		if v == id {
			b.order[topic] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[int]Handlers)
	b.order = make(map[string][]int)
	return nil
}

type localSubscription struct {
	broker *LocalBroker
	topic  string
	id     int
	once   sync.Once
}

func (s *localSubscription) Unsubscribe() {
	s.once.Do(func() { s.broker.unsubscribe(s.topic, s.id) })
}
