package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	exchangePrefix   = "realtime."
	reconnectBackoff = 5 * time.Second
)

var errBrokerClosed = errors.New("realtime: broker closed")

// RabbitBroker fans events out through one RabbitMQ fanout exchange per topic.
// Every subscription consumes from its own exclusive, auto-deleted queue, so all
// server instances receive every event. After a lost connection the broker redials
// and re-binds its subscriptions; events published in between are lost.
type RabbitBroker struct {
	url    string
	logger *zap.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	subs   map[int]*rabbitSubscription
	nextID int
	closed bool
}

func NewRabbitBroker(url string, logger *zap.Logger) (*RabbitBroker, error) {
	b := &RabbitBroker{
		url:    url,
		logger: logger,
		subs:   make(map[int]*rabbitSubscription),
	}
	if err := b.connect(); err != nil {
		return nil, fmt.Errorf("realtime.NewRabbitBroker: %w", err)
	}
	go b.handleReconnect(b.conn)
	return b, nil
}

func exchangeName(topic string) string {
	return exchangePrefix + topic
}

func declareExchange(ch *amqp.Channel, topic string) error {
	return ch.ExchangeDeclare(
		exchangeName(topic), // name
		"fanout",            // type
		true,                // durable
		false,               // auto-deleted
		false,               // internal
		false,               // no-wait
		nil,                 // args
	)
}

// connect dials and opens the publishing channel. Callers must not hold mu.
func (b *RabbitBroker) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	b.mu.Lock()
	b.conn = conn
	b.pubCh = ch
	b.mu.Unlock()

	b.logger.Info("Connected to RabbitMQ")
	return nil
}

func (b *RabbitBroker) handleReconnect(conn *amqp.Connection) {
	for {
		errs := conn.NotifyClose(make(chan *amqp.Error, 1))
		e, ok := <-errs
		if !ok || e == nil {
			// Graceful close.
			return
		}
		b.logger.Warn("RabbitMQ connection lost", zap.String("reason", e.Reason))

		for {
			time.Sleep(reconnectBackoff)
			if b.isClosed() {
				return
			}
			if err := b.connect(); err != nil {
				b.logger.Warn("RabbitMQ reconnect failed", zap.Error(err))
				continue
			}
			break
		}

		b.mu.Lock()
		conn = b.conn
		subs := make([]*rabbitSubscription, 0, len(b.subs))
		for _, s := range b.subs {
			subs = append(subs, s)
		}
		b.mu.Unlock()

		for _, s := range subs {
			if err := b.consume(s); err != nil {
				b.logger.Error("RabbitMQ resubscribe failed", zap.String("topic", s.topic), zap.Error(err))
			}
		}
	}
}

func (b *RabbitBroker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *RabbitBroker) Publish(ctx context.Context, topic string, kind Kind, payload any) error {
	ev, err := newEvent(topic, kind, payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime.Publish marshal: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBrokerClosed
	}
	if err := declareExchange(b.pubCh, topic); err != nil {
		return fmt.Errorf("realtime.Publish declare: %w", err)
	}
	err = b.pubCh.PublishWithContext(
		ctx,
		exchangeName(topic), // exchange
		"",                  // routing key (ignored for fanout)
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Type:        string(kind),
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("realtime.Publish: %w", err)
	}
	return nil
}

func (b *RabbitBroker) Subscribe(topic string, h Handlers) (Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errBrokerClosed
	}
	b.nextID++
	s := &rabbitSubscription{broker: b, id: b.nextID, topic: topic, handlers: h}
	b.subs[s.id] = s
	b.mu.Unlock()

	if err := b.consume(s); err != nil {
		b.mu.Lock()
		delete(b.subs, s.id)
		b.mu.Unlock()
		return nil, fmt.Errorf("realtime.Subscribe %s: %w", topic, err)
	}
	return s, nil
}

// consume opens a channel for s on the current connection and starts delivering.
func (b *RabbitBroker) consume(s *rabbitSubscription) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := declareExchange(ch, s.topic); err != nil {
		ch.Close()
		return err
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return err
	}
	if err := ch.QueueBind(q.Name, "", exchangeName(s.topic), false, nil); err != nil {
		ch.Close()
		return err
	}
	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return err
	}

	s.setChannel(ch)
	go b.deliver(s, msgs)
	return nil
}

func (b *RabbitBroker) deliver(s *rabbitSubscription, msgs <-chan amqp.Delivery) {
	for d := range msgs {
		var ev Event
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			b.logger.Warn("Dropping malformed realtime message", zap.String("topic", s.topic), zap.Error(err))
			continue
		}
		if err := s.handlers.Handle(context.Background(), ev); err != nil {
			b.logger.Warn("Realtime handler failed",
				zap.String("topic", s.topic),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err))
		}
	}
}

func (b *RabbitBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	conn := b.conn
	b.mu.Unlock()
	return conn.Close()
}

type rabbitSubscription struct {
	broker   *RabbitBroker
	id       int
	topic    string
	handlers Handlers

	mu sync.Mutex
	ch *amqp.Channel
}

func (s *rabbitSubscription) setChannel(ch *amqp.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ch = ch
}

func (s *rabbitSubscription) Unsubscribe() {
	s.broker.mu.Lock()
	delete(s.broker.subs, s.id)
	s.broker.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		s.ch.Close()
		s.ch = nil
	}
}
