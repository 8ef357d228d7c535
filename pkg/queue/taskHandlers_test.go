package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	to, subject, body string
	err               error
}

func (s *recordingSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.err != nil {
		return s.err
	}
	s.to, s.subject, s.body = to, subject, htmlBody
	return nil
}

func TestHandleSendEmailTask(t *testing.T) {
	sender := &recordingSender{}
	h := NewTaskHandler(sender, time.Second)

	task := &Task{
		ID:   "t1",
		Type: TaskTypeSendEmail,
		Data: map[string]interface{}{
			"to":      "user@example.com",
			"subject": "Milk expires tomorrow",
			"body":    "<p>Milk expires tomorrow.</p>",
		},
	}

	require.NoError(t, h.HandleTask(task))
	assert.Equal(t, "user@example.com", sender.to)
	assert.Equal(t, "Milk expires tomorrow", sender.subject)
}

func TestHandleSendEmailTaskMissingRecipient(t *testing.T) {
	h := NewTaskHandler(&recordingSender{}, time.Second)

	task := &Task{ID: "t1", Type: TaskTypeSendEmail, Data: map[string]interface{}{}}

	err := h.HandleTask(task)
	require.Error(t, err)
	// "no recipient" is classified as non-retryable by the retry manager.
	assert.Contains(t, err.Error(), "no recipient")
}

func TestHandleTaskUnknownType(t *testing.T) {
	h := NewTaskHandler(&recordingSender{}, time.Second)

	err := h.HandleTask(&Task{ID: "t1", Type: "resize_image", Data: map[string]interface{}{}})
	assert.Error(t, err)
}

func TestHandleSendEmailTaskTransportFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	h := NewTaskHandler(sender, time.Second)

	task := &Task{
		ID:   "t1",
		Type: TaskTypeSendEmail,
		Data: map[string]interface{}{"to": "user@example.com"},
	}

	assert.Error(t, h.HandleTask(task))
}
