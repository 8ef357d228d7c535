package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"freshkeeper/internal/entity"

	"github.com/lib/pq"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `
	id, user_id, name, quantity, unit, status, expiry_date, price,
	notify_enabled, notify_day_offsets, notify_email, notify_in_app,
	notified_for_expiry, last_notification_sent, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*entity.Item, error) {
	var item entity.Item
	var expiry, lastSent sql.NullTime
	var price sql.NullFloat64
	var offsets pq.Int64Array

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Name,
		&item.Quantity,
		&item.Unit,
		&item.Status,
		&expiry,
		&price,
		&item.Notifications.Enabled,
		&offsets,
		&item.Notifications.Email,
		&item.Notifications.InApp,
		&item.NotifiedForExpiry,
		&lastSent,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Notifications.DayOffsets = []int64(offsets)
	if expiry.Valid {
		d := entity.DateOf(expiry.Time)
		item.ExpiryDate = &d
	}
	if price.Valid {
		item.Price = &price.Float64
	}
	if lastSent.Valid {
		item.LastNotificationSent = &lastSent.Time
	}
	return &item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (
			user_id, name, quantity, unit, status, expiry_date, price,
			notify_enabled, notify_day_offsets, notify_email, notify_in_app,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		item.UserID,
		item.Name,
		item.Quantity,
		item.Unit,
		item.Status,
		item.ExpiryDate,
		item.Price,
		item.Notifications.Enabled,
		pq.Array(item.Notifications.DayOffsets),
		item.Notifications.Email,
		item.Notifications.InApp,
		now,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	query := `SELECT` + itemColumns + `FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (r *itemRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.Item, error) {
	query := `SELECT` + itemColumns + `FROM items WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items by user: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// Update rewrites the item's mutable attributes. When the expiry date
// changes to a different value the dedup latch and the last-send timestamp
// are cleared in the same statement, which starts a fresh notification
// cycle for the new date. The CASE expressions reference the old row
// values, so evaluation order does not matter.
func (r *itemRepository) Update(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items
		SET name = $1, quantity = $2, unit = $3, status = $4, price = $5,
		    notify_enabled = $6, notify_day_offsets = $7,
		    notify_email = $8, notify_in_app = $9,
		    notified_for_expiry = CASE
		        WHEN expiry_date IS DISTINCT FROM $10 THEN FALSE
		        ELSE notified_for_expiry END,
		    last_notification_sent = CASE
		        WHEN expiry_date IS DISTINCT FROM $10 THEN NULL
		        ELSE last_notification_sent END,
		    expiry_date = $10,
		    updated_at = $11
		WHERE id = $12
	`

	result, err := r.db.ExecContext(ctx, query,
		item.Name,
		item.Quantity,
		item.Unit,
		item.Status,
		item.Price,
		item.Notifications.Enabled,
		pq.Array(item.Notifications.DayOffsets),
		item.Notifications.Email,
		item.Notifications.InApp,
		item.ExpiryDate,
		time.Now(),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrItemNotFound
	}

	item.UpdatedAt = time.Now()
	return nil
}

func (r *itemRepository) UpdateStatus(ctx context.Context, id int64, status entity.ItemStatus) error {
	query := `UPDATE items SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrItemNotFound
	}
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM items WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrItemNotFound
	}
	return nil
}

// FindExpiringBetween returns items whose expiry date falls in [from, to]
// inclusive and whose status is in the given set. Rows are ordered by
// user_id so the scanner can batch per owner; callers must not rely on
// any further ordering.
func (r *itemRepository) FindExpiringBetween(ctx context.Context, from, to time.Time, statuses []entity.ItemStatus) ([]*entity.Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	query := `SELECT` + itemColumns + `FROM items
		WHERE expiry_date IS NOT NULL
		  AND expiry_date >= $1 AND expiry_date <= $2
		  AND status IN (`
	args := []interface{}{from, to}

	for i, status := range statuses {
		if i > 0 {
			query += ","
		}
		query += fmt.Sprintf("$%d", i+3)
		args = append(args, status)
	}
	query += `) ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// FindUrgent returns pending items expiring within the current calendar
// day, bounded by [dayStart, dayEnd].
func (r *itemRepository) FindUrgent(ctx context.Context, dayStart, dayEnd time.Time) ([]*entity.Item, error) {
	query := `SELECT` + itemColumns + `FROM items
		WHERE expiry_date IS NOT NULL
		  AND expiry_date >= $1 AND expiry_date <= $2
		  AND status = $3
		ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query, dayStart, dayEnd, entity.ItemStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query urgent items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// MarkNotified sets the cycle latch and the last-send timestamp without
// touching any other column, scoped to a single item id.
func (r *itemRepository) MarkNotified(ctx context.Context, id int64, sentAt time.Time) error {
	query := `
		UPDATE items
		SET notified_for_expiry = TRUE, last_notification_sent = $1, updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, sentAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark item notified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrItemNotFound
	}
	return nil
}

func collectItems(rows *sql.Rows) ([]*entity.Item, error) {
	var items []*entity.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}
