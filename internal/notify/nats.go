package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/brightside-studio/backend/internal/model"
)

// SubjectContact is where new submissions are announced.
const SubjectContact = "notifications.contact"

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
	FlushTimeout  time.Duration // how long Notify waits for the server to ack
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "agency-contact",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
		FlushTimeout:  2 * time.Second,
	}
}

// NATSNotifier publishes events so other services (chat bots, CRM sync) can
// subscribe without the form endpoint knowing about them.
type NATSNotifier struct {
	conn         *nats.Conn
	subject      string
	flushTimeout time.Duration
}

// NewNATSNotifier connects to NATS with the given config.
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	slog.Info("nats connected", "url", nc.ConnectedUrl())
	return NewNATSNotifierFromConn(nc, SubjectContact, cfg.FlushTimeout), nil
}

// NewNATSNotifierFromConn wraps an existing connection.
func NewNATSNotifierFromConn(nc *nats.Conn, subject string, flushTimeout time.Duration) *NATSNotifier {
	if flushTimeout <= 0 {
		flushTimeout = 2 * time.Second
	}
	return &NATSNotifier{conn: nc, subject: subject, flushTimeout: flushTimeout}
}

func (n *NATSNotifier) Notify(_ context.Context, ev model.ContactEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = data
	msg.Header.Set("Nats-Msg-Id", uuid.NewString())
	msg.Header.Set("Event-Type", ev.EventType)

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", n.subject, err)
	}
	if err := n.conn.FlushTimeout(n.flushTimeout); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() {
	if err := n.conn.Drain(); err != nil {
		slog.Warn("nats drain failed", "error", err)
	}
}
