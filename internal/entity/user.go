package entity

import "time"

type User struct {
	ID    int64  `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`

	// Notification preferences. ExpiryAlerts is the master switch; the
	// channel flags gate each delivery channel independently.
	ExpiryAlerts       bool `json:"expiry_alerts" db:"expiry_alerts"`
	EmailNotifications bool `json:"email_notifications" db:"email_notifications"`
	InAppNotifications bool `json:"in_app_notifications" db:"in_app_notifications"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
