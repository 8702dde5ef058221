package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// AMQPBus publishes domain events onto a durable RabbitMQ queue for the
// worker binary to consume. Publish-only: subscription happens in the worker
// process, not through this type.
type AMQPBus struct {
	URL       string
	QueueName string
}

func NewAMQPBus(url, queueName string) *AMQPBus {
	return &AMQPBus{URL: url, QueueName: queueName}
}

// Publish marshals the event and delivers it to the queue. Each call dials a
// fresh connection.
func (b *AMQPBus) Publish(ev Event) error {
	conn, err := amqp.Dial(b.URL)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		b.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

var _ Publisher = (*AMQPBus)(nil)
