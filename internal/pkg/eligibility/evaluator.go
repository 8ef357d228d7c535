// Package eligibility decides whether an expiry notification fires for an
// item. It is pure: no I/O, no clocks, everything comes in as arguments.
package eligibility

import (
	"time"

	"freshkeeper/internal/entity"
)

const (
	// MaxDayOffset bounds the configurable warn offsets; item policy
	// validation clamps offsets into [0, MaxDayOffset].
	MaxDayOffset = 30

	// UrgentResendInterval is the minimum gap between two sends on the
	// urgent same-day path.
	UrgentResendInterval = 4 * time.Hour
)

// ChannelSet lists the delivery channels selected for a firing trigger.
type ChannelSet struct {
	Email bool
	InApp bool
}

// Decision is the outcome of evaluating one item: either no action, or a
// fire with the computed day offset and channel set.
type Decision struct {
	Fire            bool
	DaysUntilExpiry int
	Urgent          bool
	Channels        ChannelSet
}

var noAction = Decision{}

// Evaluate applies the notification policy of item and the preferences of
// its owner at time now.
//
// The offset path fires when the item is not yet latched for the current
// expiry cycle and the computed day offset is one of the configured
// offsets. The urgent path fires for items expiring today or already
// expired, ignores both the latch and the offsets list, and is rate
// limited by LastNotificationSent so the hourly scan cannot re-send
// within UrgentResendInterval.
func Evaluate(item *entity.Item, user *entity.User, now time.Time) Decision {
	if item.ExpiryDate == nil {
		return noAction
	}
	if !user.ExpiryAlerts || !item.Notifications.Enabled {
		return noAction
	}

	days := DaysUntilExpiry(*item.ExpiryDate, now)

	offsetHit := !item.NotifiedForExpiry && containsOffset(item.Notifications.DayOffsets, days)

	urgentHit := false
	if days <= 0 {
		last := item.LastNotificationSent
		urgentHit = last == nil || now.Sub(*last) >= UrgentResendInterval
	}

	if !offsetHit && !urgentHit {
		return noAction
	}

	return Decision{
		Fire:            true,
		DaysUntilExpiry: days,
		Urgent:          urgentHit && !offsetHit,
		Channels: ChannelSet{
			Email: item.Notifications.Email && user.EmailNotifications,
			InApp: item.Notifications.InApp && user.InAppNotifications,
		},
	}
}

// DaysUntilExpiry returns the number of whole days between now's calendar
// day and the expiry date. Zero means expiring today, negative means the
// item is already expired. Both sides are normalized to UTC midnights so
// DST transitions cannot skew the count.
func DaysUntilExpiry(expiry entity.Date, now time.Time) int {
	return int(expiry.Sub(entity.DateOf(now).Time) / (24 * time.Hour))
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func containsOffset(offsets []int64, days int) bool {
	for _, o := range offsets {
		if int(o) == days {
			return true
		}
	}
	return false
}
