package queue

import (
	"context"
)

// MessageInterface is a delivered job plus its acknowledgement handle.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue adds a job to the queue. Jobs with NotBefore in the
	// future are held back until that time.
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue. The caller
	// acknowledges each message; prefetchCount bounds how many
	// unacknowledged messages this consumer holds. Both channels close
	// when the context is cancelled or the connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}
