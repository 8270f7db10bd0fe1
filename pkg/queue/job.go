package queue

import "context"

// Job defines a queue job handler.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the message type the job consumes.
	Type() string

	// Handle processes one dequeued payload.
	Handle(ctx context.Context, payload interface{}) error
}
