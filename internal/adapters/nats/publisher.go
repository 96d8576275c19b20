package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// Subjects and stream names for map view events.
const (
	StreamViews     = "MAP_VIEWS"
	SubjectPrefix   = "map.view."
	SubjectWildcard = "map.view.>"
)

// Subject returns the subject a view event is published on,
// e.g. "map.view.created.<view id>".
func Subject(t domain.ViewEventType, viewID string) string {
	return SubjectPrefix + string(t) + "." + viewID
}

// EventSubject matches every view's events of type t.
func EventSubject(t domain.ViewEventType) string {
	return SubjectPrefix + string(t) + ".*"
}

// ViewSubject matches every event of a single view.
func ViewSubject(viewID string) string {
	return SubjectPrefix + "*." + viewID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
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

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	cfg := nats.StreamConfig{
		Name:      StreamViews,
		Subjects:  []string{SubjectWildcard},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// PublishViewEvent publishes event on its type subject.
func (p *Publisher) PublishViewEvent(ctx context.Context, event *domain.ViewEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(Subject(event.Type, event.ViewID), data, nats.Context(ctx), nats.MsgId(msgID(event)))
	return err
}

// msgID lets JetStream drop duplicates when a publish is retried.
func msgID(event *domain.ViewEvent) string {
	id := event.ViewID + ":" + string(event.Type) + ":" + event.Time.Format(time.RFC3339Nano)
	if event.Marker != nil {
		id += ":" + event.Marker.ID
	}
	return id
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("mapboot"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
