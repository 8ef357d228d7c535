package entity

import "time"

type ItemStatus string

const (
	// ItemStatusPending is the active state; only pending items are
	// considered by the expiry scans.
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusUsed      ItemStatus = "used"
)

// NotificationPolicy is the per-item notification configuration.
// DayOffsets lists how many days before expiry a warning fires; the
// channel flags select delivery channels, further gated by the owner's
// preferences.
type NotificationPolicy struct {
	Enabled    bool    `json:"enabled"`
	DayOffsets []int64 `json:"day_offsets"`
	Email      bool    `json:"email"`
	InApp      bool    `json:"in_app"`
}

// DefaultNotificationPolicy returns the policy applied to items created
// without an explicit one: all channels on, warnings at 7, 3 and 1 days
// before expiry.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		Enabled:    true,
		DayOffsets: []int64{1, 3, 7},
		Email:      true,
		InApp:      true,
	}
}

// Item is a perishable inventory entry owned by a user. ExpiryDate is
// optional; items without one never enter the expiry scans.
//
// NotifiedForExpiry latches once an offset warning has fired for the
// current expiry date and is cleared when the date changes, starting a
// new notification cycle. LastNotificationSent rate-limits the urgent
// same-day path, which ignores the latch.
type Item struct {
	ID       int64      `json:"id" db:"id"`
	UserID   int64      `json:"user_id" db:"user_id"`
	Name     string     `json:"name" db:"name"`
	Quantity float64    `json:"quantity" db:"quantity"`
	Unit     string     `json:"unit" db:"unit"`
	Status   ItemStatus `json:"status" db:"status"`

	ExpiryDate *Date    `json:"expiry_date,omitempty" db:"expiry_date"`
	Price      *float64 `json:"price,omitempty" db:"price"`

	Notifications NotificationPolicy `json:"notifications"`

	NotifiedForExpiry    bool       `json:"notified_for_expiry" db:"notified_for_expiry"`
	LastNotificationSent *time.Time `json:"last_notification_sent,omitempty" db:"last_notification_sent"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
