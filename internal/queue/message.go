package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message wraps a delivered job with its acknowledgement handle.
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Channel     *amqp.Channel
}

var _ MessageInterface = (*Message)(nil)

// Ack acknowledges the message, removing it from the queue.
func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack rejects the message. With requeue false the message moves to
// the dead letter queue.
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

// GetJob returns the message's job.
func (m *Message) GetJob() *Job {
	return m.Job
}
