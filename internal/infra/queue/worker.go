package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/entity"
)

// FollowUpHandler delivers one follow-up job; usecase.SendFollowUpUseCase in production.
type FollowUpHandler interface {
	Execute(ctx context.Context, job entity.FollowUpJob) error
}

type Worker struct {
	Channel Channel
	Handler FollowUpHandler
}

func NewWorker(ch Channel, handler FollowUpHandler) *Worker {
	return &Worker{
		Channel: ch,
		Handler: handler,
	}
}

// Start consumes the follow-up queue until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Channel.Qos(5, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := w.Channel.Consume(
		QueueName,
		"leadflow-followups",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register RabbitMQ consumer: %w", err)
	}

	log.Info().Str("queue", QueueName).Msg("follow-up worker started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("follow-up deliveries channel closed")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks on success; anything else is dead-lettered without requeue.
func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job entity.FollowUpJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Error().Err(err).Msg("invalid follow-up payload")
		d.Nack(false, false)
		return
	}

	if err := w.Handler.Execute(ctx, job); err != nil {
		log.Error().Err(err).Int("followup", job.FollowupNumber).Msg("follow-up delivery failed")
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}
