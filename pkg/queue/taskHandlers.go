package queue

import (
	"context"
	"fmt"
	"log"
	"time"
)

// EmailSender is the transport used to deliver email tasks.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// TaskHandler consumes queued tasks and routes them by type.
type TaskHandler struct {
	mailer  EmailSender
	timeout time.Duration
}

func NewTaskHandler(mailer EmailSender, timeout time.Duration) *TaskHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TaskHandler{
		mailer:  mailer,
		timeout: timeout,
	}
}

// HandleTask processes one task.
func (h *TaskHandler) HandleTask(task *Task) error {
	log.Printf("Processing task %s of type %s (attempt %d/%d)",
		task.ID, task.Type, task.Attempts, task.MaxRetries)

	switch task.Type {
	case TaskTypeSendEmail:
		return h.handleSendEmail(task)
	default:
		return fmt.Errorf("invalid task type: %s", task.Type)
	}
}

func (h *TaskHandler) handleSendEmail(task *Task) error {
	to := task.GetString("to")
	if to == "" {
		return fmt.Errorf("no recipient in task data")
	}
	subject := task.GetString("subject")
	body := task.GetString("body")

	// Each attempt gets its own deadline so one stuck SMTP dialog cannot
	// hold the consumer.
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("failed to send email task %s: %w", task.ID, err)
	}

	log.Printf("Email task %s delivered to %s", task.ID, to)
	return nil
}
