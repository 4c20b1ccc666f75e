// Package events signals that a collection changed and its board view must be
// recomputed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// ViewChanged is published after a mutation has been applied and persisted.
type ViewChanged struct {
	Collection string    `json:"collection"`
	Intent     string    `json:"intent"`
	Saved      bool      `json:"saved"`
	Records    int       `json:"records"`
	At         time.Time `json:"at"`
}

// Notifier receives view-changed signals.
type Notifier interface {
	ViewChanged(ctx context.Context, event ViewChanged) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event ViewChanged) error

func (f NotifierFunc) ViewChanged(ctx context.Context, event ViewChanged) error {
	return f(ctx, event)
}

// Nop discards every signal.
type Nop struct{}

func (Nop) ViewChanged(context.Context, ViewChanged) error { return nil }

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes each signal as JSON on <prefix>.<collection>, with
// slashes in the collection path turned into subject tokens.
type NATSNotifier struct {
	conn   publisher
	prefix string
	close  func()
}

// NewNATSNotifier connects to natsURL.
func NewNATSNotifier(natsURL, prefix string) (*NATSNotifier, error) {
	nc, err := nats.Connect(natsURL, nats.Name("containerboard-api"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	notifier := newNATSNotifier(nc, prefix)
	notifier.close = nc.Close
	return notifier, nil
}

func newNATSNotifier(conn publisher, prefix string) *NATSNotifier {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "containers.view"
	}
	return &NATSNotifier{conn: conn, prefix: prefix}
}

// Subject returns the subject a collection's signals go to.
func (n *NATSNotifier) Subject(collection string) string {
	return n.prefix + "." + strings.ReplaceAll(strings.Trim(collection, "/"), "/", ".")
}

func (n *NATSNotifier) ViewChanged(_ context.Context, event ViewChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal view event: %w", err)
	}
	if err := n.conn.Publish(n.Subject(event.Collection), payload); err != nil {
		return fmt.Errorf("publish view event: %w", err)
	}
	return nil
}

func (n *NATSNotifier) Close() {
	if n.close != nil {
		n.close()
	}
}
