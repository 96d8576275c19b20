package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subject string
	subs    []*nats.Subscription
}

// NewSubscriber creates a durable consumer of view events. subject narrows
// the events received; empty means all view events.
func NewSubscriber(url, durable, subject string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStream(js); err != nil {
		return nil, err
	}
	if subject == "" {
		subject = SubjectWildcard
	}
	return &Subscriber{conn: conn, js: js, durable: durable, subject: subject}, nil
}

// SubscribeViewEvents delivers decoded events to handler. Messages the
// handler fails on are redelivered up to three times.
func (s *Subscriber) SubscribeViewEvents(ctx context.Context, handler func(ctx context.Context, event *domain.ViewEvent) error) error {
	sub, err := s.js.Subscribe(s.subject, func(msg *nats.Msg) {
		var event domain.ViewEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// poison message, never redeliver
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
