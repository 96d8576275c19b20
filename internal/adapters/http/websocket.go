package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/mapboot/internal/adapters/nats"
	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/pkg/metrics"
)

// wsMessage is sent by a client to change what it receives.
//
//	{"action":"subscribe","view_id":"<uuid>"}          every event of one view
//	{"action":"subscribe","event":"marker_added"}     one event type, all views
//	{"action":"unsubscribe","view_id":"<uuid>"}
type wsMessage struct {
	Action string `json:"action"`
	ViewID string `json:"view_id"`
	Event  string `json:"event"`
}

// wsSubject resolves a client message to a NATS subject.
func wsSubject(m wsMessage) (string, bool) {
	switch {
	case m.ViewID != "":
		return natsadapter.ViewSubject(m.ViewID), true
	case m.Event == "":
		return natsadapter.SubjectWildcard, true
	}
	switch t := domain.ViewEventType(m.Event); t {
	case domain.ViewCreated, domain.ViewCentered, domain.ViewMarkerAdded:
		return natsadapter.EventSubject(t), true
	}
	return "", false
}

type unsubscriber interface {
	Unsubscribe() error
}

// wsSubscriptions tracks one client's NATS subscriptions. The wildcard a
// client starts with is a default: the first narrower subscribe replaces it
// so no event is relayed twice.
type wsSubscriptions struct {
	subs     map[string]unsubscriber
	implicit bool
}

func newWSSubscriptions(wildcard unsubscriber) *wsSubscriptions {
	return &wsSubscriptions{
		subs:     map[string]unsubscriber{natsadapter.SubjectWildcard: wildcard},
		implicit: true,
	}
}

func (w *wsSubscriptions) has(subject string) bool {
	_, ok := w.subs[subject]
	return ok
}

// keep turns the default wildcard into an explicit subscription. It reports
// whether anything changed.
func (w *wsSubscriptions) keep(subject string) bool {
	if !w.implicit || subject != natsadapter.SubjectWildcard {
		return false
	}
	w.implicit = false
	return true
}

func (w *wsSubscriptions) add(subject string, sub unsubscriber) {
	if w.implicit {
		w.implicit = false
		if subject != natsadapter.SubjectWildcard {
			if def, ok := w.subs[natsadapter.SubjectWildcard]; ok {
				_ = def.Unsubscribe()
				delete(w.subs, natsadapter.SubjectWildcard)
			}
		}
	}
	w.subs[subject] = sub
}

func (w *wsSubscriptions) remove(subject string) bool {
	s, ok := w.subs[subject]
	if !ok {
		return false
	}
	_ = s.Unsubscribe()
	delete(w.subs, subject)
	if subject == natsadapter.SubjectWildcard {
		w.implicit = false
	}
	return true
}

func (w *wsSubscriptions) close() {
	for subject, s := range w.subs {
		_ = s.Unsubscribe()
		delete(w.subs, subject)
	}
}

// WebSocketHandler relays view events from NATS to the connected client.
// Every client starts on all view events until it subscribes to something
// narrower.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		logger := slog.Default().With("remote_addr", c.RemoteAddr().String())
		logger.Info("ws client connected")

		var mu sync.Mutex

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		sub, err := nc.Subscribe(natsadapter.SubjectWildcard, relay)
		if err != nil {
			logger.Error("ws default subscribe failed", "error", err)
			return
		}
		subs := newWSSubscriptions(sub)

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, ok := wsSubject(m)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown event: " + m.Event})
				continue
			}

			switch m.Action {
			case "subscribe":
				if subs.has(subject) {
					status := "already subscribed"
					if subs.keep(subject) {
						status = "subscribed"
					}
					_ = writeJSON(map[string]string{"status": status, "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs.add(subject, s)
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if subs.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		subs.close()
		logger.Info("ws client disconnected")
	}
}
