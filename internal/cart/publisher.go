// Package cart hands configured lines to the external cart subsystem.
package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/dukerupert/configurator/internal/domain"
)

// DefaultSubject is the subject cart lines are published on.
const DefaultSubject = "cart.lines.add"

// Event is the message body published for every cart line.
type Event struct {
	ID         string          `json:"id"`
	OccurredAt time.Time       `json:"occurredAt"`
	Line       domain.CartLine `json:"line"`
}

func newEvent(line domain.CartLine, now time.Time) Event {
	return Event{ID: uuid.NewString(), OccurredAt: now.UTC(), Line: line}
}

// =============================================================================
// NATS
// =============================================================================

// msgPublisher is the part of *nats.Conn the publisher uses.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher publishes cart lines as JSON to a NATS subject. The event id
// doubles as the Nats-Msg-Id header so JetStream consumers can deduplicate.
type NATSPublisher struct {
	conn    msgPublisher
	subject string
	logger  *slog.Logger
	now     func() time.Time
}

var _ domain.CartPublisher = (*NATSPublisher)(nil)

// NewNATSPublisher creates a publisher on an open connection.
func NewNATSPublisher(nc *nats.Conn, subject string, logger *slog.Logger) *NATSPublisher {
	return newNATSPublisher(nc, subject, logger)
}

func newNATSPublisher(conn msgPublisher, subject string, logger *slog.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger, now: time.Now}
}

// Publish sends one cart line.
func (p *NATSPublisher) Publish(ctx context.Context, line domain.CartLine) error {
	const op = "cart.publish"

	if err := ctx.Err(); err != nil {
		return domain.Unavailable(err, op, "Cart is unavailable")
	}

	ev := newEvent(line, p.now())
	data, err := json.Marshal(ev)
	if err != nil {
		return domain.Internal(err, op, "failed to encode cart line")
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, ev.ID)
	msg.Header.Set("Content-Type", "application/json")

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Error("failed to publish cart line", "subject", p.subject, "product_id", line.ProductID, "error", err)
		return domain.Unavailable(err, op, "Cart is unavailable")
	}

	p.logger.Info("cart line published",
		"subject", p.subject,
		"event_id", ev.ID,
		"product_id", line.ProductID,
		"sku", line.SKU,
		"quantity", line.Quantity,
	)
	return nil
}

// Connect dials NATS with reconnect handling that logs through logger.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	)
}

// =============================================================================
// LOG
// =============================================================================

// LogPublisher only logs cart lines. It stands in when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ domain.CartPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the line.
func (p *LogPublisher) Publish(ctx context.Context, line domain.CartLine) error {
	data, err := json.Marshal(line)
	if err != nil {
		return domain.Internal(err, "cart.publish", "failed to encode cart line")
	}
	p.logger.InfoContext(ctx, "cart line ready", "line", string(data))
	return nil
}
