package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"github.com/wayfarer-go/navigator/internal/service/navsession"
	"github.com/wayfarer-go/navigator/pkg/logger"
	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"
	"github.com/wayfarer-go/navigator/pkg/rabbit"
)

const (
	NavExchange = "nav_topic"

	routingKeyDeviation  = "nav.deviation"
	routingKeyCompletion = "nav.completion"
)

// EventBroker publishes deviation/completion notifications for navsession
// to a topic exchange, one routing key per event kind.
type EventBroker struct {
	client      *rabbit.RabbitMQ
	NavExchange string

	l logger.Logger
}

func NewEventBroker(client *rabbit.RabbitMQ, log logger.Logger) *EventBroker {
	return &EventBroker{
		client:      client,
		NavExchange: NavExchange,
		l:           log,
	}
}

var _ navsession.Publisher = (*EventBroker)(nil)

// PublishDeviation publishes the transition NoDeviation -> OffRoute for a
// session to the exchange with routing key "nav.deviation".
func (b *EventBroker) PublishDeviation(ctx context.Context, ev navsession.DeviationEvent) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_nav_deviation")

	if err := b.client.EnsureConnection(ctx); err != nil {
		b.l.Error(ctx, "ensure connection failed", err)
		return wrap.Error(ctx, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal deviation event: %w", err))
	}

	return b.publish(ctx, routingKeyDeviation, body)
}

// PublishCompletion publishes the transition to Complete for a session to
// the exchange with routing key "nav.completion".
func (b *EventBroker) PublishCompletion(ctx context.Context, ev navsession.CompletionEvent) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_nav_completion")

	if err := b.client.EnsureConnection(ctx); err != nil {
		b.l.Error(ctx, "ensure connection failed", err)
		return wrap.Error(ctx, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal completion event: %w", err))
	}

	return b.publish(ctx, routingKeyCompletion, body)
}

func (b *EventBroker) publish(ctx context.Context, key string, body []byte) error {
	if err := retry(5, time.Second, func() error {
		return b.client.Channel.PublishWithContext(
			ctx,
			b.NavExchange,
			key,
			false,
			false,
			amqp091.Publishing{
				ContentType: "application/json",
				Body:        body,
				Timestamp:   time.Now(),
			},
		)
	}); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to publish to %s: %w", key, err))
	}

	return nil
}
