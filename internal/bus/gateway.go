// Package bus publishes work requests for the out-of-process workers.
// Publishing is fire-and-forget: there are no publisher confirms and no
// retries.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"airg/internal/reqctx"
)

var ErrClosed = errors.New("message bus gateway closed")

// Publisher is what controllers depend on.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Channel is the subset of *amqp.Channel the gateway needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Gateway struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string

	mu     sync.RWMutex
	closed bool
}

// Dial connects to the broker and declares a durable topic exchange whose
// routing keys are the subjects.
func Dial(url, exchange string) (*Gateway, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	gw := NewGateway(ch, exchange)
	gw.conn = conn
	return gw, nil
}

// NewGateway wraps an already open channel.
func NewGateway(ch Channel, exchange string) *Gateway {
	return &Gateway{ch: ch, exchange: exchange}
}

func (g *Gateway) Publish(ctx context.Context, subject string, payload any) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return ErrClosed
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", subject, err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		Timestamp:     time.Now(),
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: reqctx.RequestID(ctx),
	}
	if err := g.ch.PublishWithContext(ctx, g.exchange, subject, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	zerolog.Ctx(ctx).Debug().Str("subject", subject).Str("message_id", msg.MessageId).Msg("published")
	return nil
}

// Close releases the channel and then the connection.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true

	err := g.ch.Close()
	if g.conn != nil {
		err = errors.Join(err, g.conn.Close())
	}
	return err
}

// Discard logs instead of publishing. It stands in when no broker is
// configured.
type Discard struct {
	Logger zerolog.Logger
}

func (d Discard) Publish(ctx context.Context, subject string, payload any) error {
	d.Logger.Warn().
		Str("subject", subject).
		Interface("payload", payload).
		Str("request_id", reqctx.RequestID(ctx)).
		Msg("message bus not configured, dropping message")
	return nil
}
