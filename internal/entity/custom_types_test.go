package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, 9, 3)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-03"`, string(b))

	var parsed Date
	require.NoError(t, json.Unmarshal(b, &parsed))
	assert.True(t, parsed.Equal(d.Time))
}

func TestDateUnmarshalRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"2026-13-99"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20260903`), &d))
	assert.Error(t, json.Unmarshal([]byte(`"not a date"`), &d))
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	d := DateOf(time.Date(2026, 8, 28, 23, 45, 0, 0, loc))
	assert.Equal(t, NewDate(2026, 8, 28), d)
	assert.Equal(t, time.UTC, d.Location())
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2026, 8, 28), d)

	var fromString Date
	require.NoError(t, fromString.Scan("2026-08-28"))
	assert.Equal(t, NewDate(2026, 8, 28), fromString)

	var bad Date
	assert.Error(t, bad.Scan(42))
}
