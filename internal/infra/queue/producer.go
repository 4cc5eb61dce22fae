package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadflow/internal/entity"
)

// RabbitMQProducer publishes follow-up jobs into the delay queue matching their delay.
// An amqp channel is not safe for concurrent publishes, so they are serialised.
type RabbitMQProducer struct {
	Ch Channel

	mu       sync.Mutex
	declared map[time.Duration]string
}

func NewProducer(ch Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Ch:       ch,
		declared: make(map[time.Duration]string),
	}
}

func (p *RabbitMQProducer) PublishFollowUp(ctx context.Context, job entity.FollowUpJob, delay time.Duration) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode follow-up job: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	exchange, key := ExchangeName, RoutingKey
	if delay > 0 {
		name, ok := p.declared[delay]
		if !ok {
			if name, err = declareDelayQueue(p.Ch, delay); err != nil {
				return err
			}
			p.declared[delay] = name
		}
		exchange, key = DelayExchangeName, name
	}

	err = p.Ch.PublishWithContext(ctx,
		exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         "followup",
		},
	)
	if err != nil {
		return fmt.Errorf("publish follow-up to RabbitMQ: %w", err)
	}
	return nil
}
