package service

import (
	"context"

	"freshkeeper/internal/entity"
)

// ItemService defines the interface for inventory item operations.
type ItemService interface {
	CreateItem(ctx context.Context, req *CreateItemRequest) (*entity.Item, error)
	GetItem(ctx context.Context, id int64) (*entity.Item, error)
	GetUserItems(ctx context.Context, userID int64) ([]*entity.Item, error)
	UpdateItem(ctx context.Context, id int64, req *UpdateItemRequest) (*entity.Item, error)
	UpdateItemStatus(ctx context.Context, id int64, status entity.ItemStatus) error
	DeleteItem(ctx context.Context, id int64) error
}

// UserService defines the interface for user operations.
type UserService interface {
	RegisterUser(ctx context.Context, req *RegisterUserRequest) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePreferences(ctx context.Context, id int64, req *UpdatePreferencesRequest) error
	DeleteUser(ctx context.Context, id int64) error
	GetAllUsers(ctx context.Context) ([]*entity.User, error)
}

// NotificationService exposes the user-facing notification feed. It owns
// the read flag; the expiry scanner only ever appends records.
type NotificationService interface {
	GetUserNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id string, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	DeleteNotification(ctx context.Context, id string, userID int64) error
}

// ExpiryService runs the expiry scans: finds candidate items, evaluates
// eligibility and dispatches firing triggers to the enabled channels.
type ExpiryService interface {
	RunDailyScan(ctx context.Context) error
	RunUrgentScan(ctx context.Context) error
}

// Mailer is the direct email transport used when no task queue is wired.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// TaskPublisher publishes delivery tasks to a queue.
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

// Task is a queue task as seen by the service layer.
type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	MaxRetries int                    `json:"max_retries"`
}

const TaskTypeSendEmail = "send_email"

// CreateItemRequest carries the data for a new inventory item.
type CreateItemRequest struct {
	UserID        int64                      `json:"user_id" binding:"required"`
	Name          string                     `json:"name" binding:"required,min=1,max=255"`
	Quantity      float64                    `json:"quantity" binding:"min=0"`
	Unit          string                     `json:"unit" binding:"max=50"`
	ExpiryDate    *entity.Date               `json:"expiry_date"`
	Price         *float64                   `json:"price"`
	Notifications *entity.NotificationPolicy `json:"notifications"`
}

// UpdateItemRequest carries a partial item update; nil fields are left
// unchanged.
type UpdateItemRequest struct {
	Name          *string                    `json:"name"`
	Quantity      *float64                   `json:"quantity"`
	Unit          *string                    `json:"unit"`
	Status        *entity.ItemStatus         `json:"status"`
	ExpiryDate    *entity.Date               `json:"expiry_date"`
	Price         *float64                   `json:"price"`
	Notifications *entity.NotificationPolicy `json:"notifications"`
}

// RegisterUserRequest carries the data for a new user.
type RegisterUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,min=1,max=255"`
}

// UpdatePreferencesRequest carries the full preference set; the feed and
// channel switches are always written together.
type UpdatePreferencesRequest struct {
	ExpiryAlerts       bool `json:"expiry_alerts"`
	EmailNotifications bool `json:"email_notifications"`
	InAppNotifications bool `json:"in_app_notifications"`
}
