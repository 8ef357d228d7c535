package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetryExhaustedAttempts(t *testing.T) {
	rm := NewRetryManager(3, time.Second)

	task := &Task{ID: "t1", Type: TaskTypeSendEmail, Attempts: 3, MaxRetries: 3}
	retry, _ := rm.ShouldRetry(task, errors.New("connection refused"))
	assert.False(t, retry)
}

func TestShouldRetryTransientError(t *testing.T) {
	rm := NewRetryManager(3, time.Second)

	task := &Task{ID: "t1", Type: TaskTypeSendEmail, Attempts: 1, MaxRetries: 3}
	retry, delay := rm.ShouldRetry(task, errors.New("connection refused"))
	assert.True(t, retry)
	assert.Greater(t, delay, time.Duration(0))
}

func TestShouldRetryNonRetryableErrors(t *testing.T) {
	rm := NewRetryManager(3, time.Second)
	task := &Task{ID: "t1", Type: TaskTypeSendEmail, Attempts: 0, MaxRetries: 3}

	tests := []struct {
		name string
		err  error
	}{
		{"invalid task", errors.New("invalid task type: resize")},
		{"missing recipient", errors.New("no recipient in task data")},
		{"malformed payload", errors.New("malformed task payload")},
		{"nil error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, _ := rm.ShouldRetry(task, tt.err)
			assert.False(t, retry)
		})
	}
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	base := time.Second
	rm := NewRetryManager(10, base)

	// With ±25% jitter the delay for attempt n stays inside
	// [backoff/2, backoff*3/2] where backoff = base * 2^(n-1).
	for attempt := 1; attempt <= 4; attempt++ {
		expected := base * time.Duration(1<<(attempt-1))
		got := rm.calculateBackoff(attempt)
		assert.GreaterOrEqual(t, got, expected/2, "attempt %d", attempt)
		assert.LessOrEqual(t, got, expected*3/2, "attempt %d", attempt)
	}

	// Far out the cap holds regardless of jitter.
	assert.LessOrEqual(t, rm.calculateBackoff(30), base*16)
}

func TestTaskValidate(t *testing.T) {
	valid := &Task{ID: "t1", Type: TaskTypeSendEmail}
	assert.NoError(t, valid.Validate())
	assert.NotNil(t, valid.Data, "Validate initializes the data map")

	assert.Error(t, (&Task{Type: TaskTypeSendEmail}).Validate())
	assert.Error(t, (&Task{ID: "t1"}).Validate())
}

func TestTaskDataAccessors(t *testing.T) {
	task := &Task{
		ID:   "t1",
		Type: TaskTypeSendEmail,
		Data: map[string]interface{}{
			"to":    "user@example.com",
			"count": float64(3), // JSON numbers arrive as float64
			"exact": 5,
		},
	}

	assert.Equal(t, "user@example.com", task.GetString("to"))
	assert.Equal(t, "", task.GetString("missing"))
	assert.Equal(t, 3, task.GetInt("count"))
	assert.Equal(t, 5, task.GetInt("exact"))
	assert.Equal(t, 0, task.GetInt("missing"))
}
