package queue

import (
	"context"
)

// Queue is the delivery queue contract used by the notification dispatcher.
type Queue interface {
	Publish(ctx context.Context, task *Task) error
	Subscribe(ctx context.Context, handler func(*Task) error) error
	Close() error
}
