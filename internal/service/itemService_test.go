package service

import (
	"testing"

	"freshkeeper/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOffsets(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int64
		want    []int64
	}{
		{
			name:    "empty falls back to defaults",
			offsets: nil,
			want:    []int64{1, 3, 7},
		},
		{
			name:    "sorted and deduplicated",
			offsets: []int64{7, 3, 3, 1, 7},
			want:    []int64{1, 3, 7},
		},
		{
			name:    "negative clamped to zero",
			offsets: []int64{-5, 2},
			want:    []int64{0, 2},
		},
		{
			name:    "overlarge clamped to the maximum",
			offsets: []int64{90, 5},
			want:    []int64{5, 30},
		},
		{
			name:    "clamping can collapse duplicates",
			offsets: []int64{40, 90},
			want:    []int64{30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeOffsets(tt.offsets))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, validStatus(entity.ItemStatusPending))
	assert.True(t, validStatus(entity.ItemStatusCompleted))
	assert.True(t, validStatus(entity.ItemStatusUsed))
	assert.False(t, validStatus(entity.ItemStatus("eaten")))
	assert.False(t, validStatus(entity.ItemStatus("")))
}

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		days      int
		wantTitle string
	}{
		{-3, "Cheese has expired"},
		{0, "Cheese expires today"},
		{1, "Cheese expires tomorrow"},
		{7, "Cheese expires in 7 days"},
	}

	for _, tt := range tests {
		title, message := formatAlert("Cheese", tt.days)
		assert.Equal(t, tt.wantTitle, title)
		assert.NotEmpty(t, message)
	}
}
