package service

import (
	"context"
	"time"

	"freshkeeper/pkg/queue"
)

const defaultTaskRetries = 3

// queuePublisher adapts a pkg/queue.Queue to the TaskPublisher interface
// the dispatcher depends on, so the service layer does not import queue
// internals.
type queuePublisher struct {
	q queue.Queue
}

// NewQueuePublisher wraps q as a TaskPublisher.
func NewQueuePublisher(q queue.Queue) TaskPublisher {
	return &queuePublisher{q: q}
}

func (p *queuePublisher) Publish(ctx context.Context, task *Task) error {
	maxRetries := task.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultTaskRetries
	}

	return p.q.Publish(ctx, &queue.Task{
		ID:         task.ID,
		Type:       queue.TaskType(task.Type),
		Data:       task.Data,
		CreatedAt:  time.Now(),
		MaxRetries: maxRetries,
	})
}
