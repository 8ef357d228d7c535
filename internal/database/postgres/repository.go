package repository

import (
	"context"
	"time"

	"freshkeeper/internal/entity"
)

type ItemRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id int64) (*entity.Item, error)
	GetByUserID(ctx context.Context, userID int64) ([]*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	UpdateStatus(ctx context.Context, id int64, status entity.ItemStatus) error
	Delete(ctx context.Context, id int64) error

	// Expiry scan queries. Preference filtering is deliberately absent
	// here; the eligibility evaluator owns it.
	FindExpiringBetween(ctx context.Context, from, to time.Time, statuses []entity.ItemStatus) ([]*entity.Item, error)
	FindUrgent(ctx context.Context, dayStart, dayEnd time.Time) ([]*entity.Item, error)

	// MarkNotified updates only the two dedup fields of a single item.
	MarkNotified(ctx context.Context, id int64, sentAt time.Time) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePreferences(ctx context.Context, id int64, expiryAlerts, email, inApp bool) error
	Delete(ctx context.Context, id int64) error
	GetAll(ctx context.Context) ([]*entity.User, error)
}

type NotificationRepository interface {
	// Create is append-only; the expiry scanner never mutates records.
	Create(ctx context.Context, n *entity.Notification) error

	// Feed API operations
	GetByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id string, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id string, userID int64) error
}
