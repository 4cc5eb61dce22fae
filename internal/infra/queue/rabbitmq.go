package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName      = "ex.followups"
	DelayExchangeName = "ex.followups.delay"
	QueueName         = "q.followups"
	DLQName           = "q.followups.dlq"
	DLXName           = "ex.followups.dlx"
	RoutingKey        = "k.followup"
)

// Channel is the part of *amqp.Channel the producer and worker use.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
}

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := SetupTopology(ch); err != nil {
		conn.Close()
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

// Channel opens a second channel, so the consumer does not share one with publishers.
func (r *RabbitMQ) Channel() (*amqp.Channel, error) {
	return r.Conn.Channel()
}

func (r *RabbitMQ) Close() error {
	return r.Conn.Close()
}

// SetupTopology declares the work queue with its dead-letter queue and the delay
// exchange. Delayed jobs wait in a per-delay queue whose messages all share one TTL
// and dead-letter into the work queue when it expires.
func SetupTopology(ch Channel) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(DLQName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(DLQName, RoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKey,
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, args); err != nil {
		return err
	}
	if err := ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	return ch.ExchangeDeclare(DelayExchangeName, "direct", true, false, false, false, nil)
}

func DelayQueueName(delay time.Duration) string {
	return fmt.Sprintf("q.followups.delay.%ds", int64(delay/time.Second))
}

func declareDelayQueue(ch Channel, delay time.Duration) (string, error) {
	name := DelayQueueName(delay)
	args := amqp.Table{
		"x-message-ttl":             delay.Milliseconds(),
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": RoutingKey,
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, args); err != nil {
		return "", fmt.Errorf("declare delay queue %s: %w", name, err)
	}
	if err := ch.QueueBind(name, name, DelayExchangeName, false, nil); err != nil {
		return "", fmt.Errorf("bind delay queue %s: %w", name, err)
	}
	return name, nil
}
