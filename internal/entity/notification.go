package entity

import "time"

type NotificationType string

const (
	NotificationTypeExpiryAlert NotificationType = "expiry_alert"
)

// NotificationData is the typed payload of a notification, keyed by the
// notification type. Each type has exactly one payload variant, so required
// fields are enforced statically instead of living in a loose map.
type NotificationData interface {
	notificationData()
}

// ExpiryAlertData is the payload for expiry_alert notifications.
type ExpiryAlertData struct {
	ItemID          int64  `json:"item_id"`
	ItemName        string `json:"item_name"`
	ExpiryDate      Date   `json:"expiry_date"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
}

func (ExpiryAlertData) notificationData() {}

// Notification is a single entry in a user's in-app feed. Records are
// append-only from the expiry scanner's perspective; the read flag is
// mutated only through the feed API.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	Data      NotificationData `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
