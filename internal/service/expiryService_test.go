package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"freshkeeper/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes for the scan tests. Only the methods the expiry
// service touches are implemented; the rest panic so an unexpected call
// fails loudly.

type fakeItemRepo struct {
	items        []*entity.Item
	findErr      error
	markErr      error
	markNotified []int64
}

func (f *fakeItemRepo) Create(ctx context.Context, item *entity.Item) error { panic("not used") }
func (f *fakeItemRepo) GetByID(ctx context.Context, id int64) (*entity.Item, error) {
	panic("not used")
}
func (f *fakeItemRepo) GetByUserID(ctx context.Context, userID int64) ([]*entity.Item, error) {
	panic("not used")
}
func (f *fakeItemRepo) Update(ctx context.Context, item *entity.Item) error { panic("not used") }
func (f *fakeItemRepo) UpdateStatus(ctx context.Context, id int64, status entity.ItemStatus) error {
	panic("not used")
}
func (f *fakeItemRepo) Delete(ctx context.Context, id int64) error { panic("not used") }

func (f *fakeItemRepo) FindExpiringBetween(ctx context.Context, from, to time.Time, statuses []entity.ItemStatus) ([]*entity.Item, error) {
	return f.items, f.findErr
}

func (f *fakeItemRepo) FindUrgent(ctx context.Context, dayStart, dayEnd time.Time) ([]*entity.Item, error) {
	return f.items, f.findErr
}

func (f *fakeItemRepo) MarkNotified(ctx context.Context, id int64, sentAt time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markNotified = append(f.markNotified, id)
	for _, item := range f.items {
		if item.ID == id {
			item.NotifiedForExpiry = true
			sent := sentAt
			item.LastNotificationSent = &sent
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[int64]*entity.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { panic("not used") }
func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return user, nil
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	panic("not used")
}
func (f *fakeUserRepo) UpdatePreferences(ctx context.Context, id int64, expiryAlerts, email, inApp bool) error {
	panic("not used")
}
func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error        { panic("not used") }
func (f *fakeUserRepo) GetAll(ctx context.Context) ([]*entity.User, error) { panic("not used") }

type fakeNotificationRepo struct {
	created   []*entity.Notification
	createErr error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, n)
	return nil
}
func (f *fakeNotificationRepo) GetByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	panic("not used")
}
func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	panic("not used")
}
func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id string, userID int64) error {
	panic("not used")
}
func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int64) error {
	panic("not used")
}
func (f *fakeNotificationRepo) Delete(ctx context.Context, id string, userID int64) error {
	panic("not used")
}

type fakeMailer struct {
	sent    []string // recipient addresses
	sendErr error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakePublisher struct {
	tasks      []*Task
	publishErr error
}

func (f *fakePublisher) Publish(ctx context.Context, task *Task) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.tasks = append(f.tasks, task)
	return nil
}

var testNow = time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

func newTestExpiryService(items *fakeItemRepo, users *fakeUserRepo, notifications *fakeNotificationRepo, m Mailer, q TaskPublisher) *expiryService {
	svc := NewExpiryService(items, users, notifications, m, q).(*expiryService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func expiringItem(id, userID int64, expiry entity.Date) *entity.Item {
	return &entity.Item{
		ID:            id,
		UserID:        userID,
		Name:          "Milk",
		Quantity:      1,
		Unit:          "l",
		Status:        entity.ItemStatusPending,
		ExpiryDate:    &expiry,
		Notifications: entity.DefaultNotificationPolicy(),
	}
}

func defaultTestUser(id int64) *entity.User {
	return &entity.User{
		ID:                 id,
		Email:              "user@example.com",
		Name:               "Alice",
		ExpiryAlerts:       true,
		EmailNotifications: true,
		InAppNotifications: true,
	}
}

func TestRunDailyScanDispatchesAlert(t *testing.T) {
	// Milk expires tomorrow; the default offsets include 1.
	items := &fakeItemRepo{items: []*entity.Item{
		expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
	}}
	users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
	notifications := &fakeNotificationRepo{}
	m := &fakeMailer{}

	svc := newTestExpiryService(items, users, notifications, m, nil)
	require.NoError(t, svc.RunDailyScan(context.Background()))

	require.Len(t, notifications.created, 1)
	n := notifications.created[0]
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, int64(1), n.UserID)
	assert.Equal(t, entity.NotificationTypeExpiryAlert, n.Type)
	assert.Equal(t, "Milk expires tomorrow", n.Title)
	assert.False(t, n.Read)

	data, ok := n.Data.(entity.ExpiryAlertData)
	require.True(t, ok)
	assert.Equal(t, int64(10), data.ItemID)
	assert.Equal(t, 1, data.DaysUntilExpiry)

	assert.Equal(t, []string{"user@example.com"}, m.sent)
	assert.Equal(t, []int64{10}, items.markNotified)
}

func TestRunDailyScanTitleFraming(t *testing.T) {
	tests := []struct {
		name      string
		expiry    entity.Date
		wantTitle string
	}{
		{"expired", entity.NewDate(2026, 8, 26), "Milk has expired"},
		{"today", entity.NewDate(2026, 8, 28), "Milk expires today"},
		{"tomorrow", entity.NewDate(2026, 8, 29), "Milk expires tomorrow"},
		{"several days", entity.NewDate(2026, 8, 31), "Milk expires in 3 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := expiringItem(10, 1, tt.expiry)
			// Force a fire regardless of offsets.
			item.Notifications.DayOffsets = []int64{0, 1, 3}

			items := &fakeItemRepo{items: []*entity.Item{item}}
			users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
			notifications := &fakeNotificationRepo{}

			svc := newTestExpiryService(items, users, notifications, &fakeMailer{}, nil)
			require.NoError(t, svc.RunDailyScan(context.Background()))

			require.Len(t, notifications.created, 1)
			assert.Equal(t, tt.wantTitle, notifications.created[0].Title)
		})
	}
}

// A failed email must not prevent the in-app record or the dedup latch:
// the channels are isolated and at-least-once on the record side wins.
func TestRunDailyScanEmailFailureIsIsolated(t *testing.T) {
	items := &fakeItemRepo{items: []*entity.Item{
		expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
	}}
	users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
	notifications := &fakeNotificationRepo{}
	m := &fakeMailer{sendErr: errors.New("smtp down")}

	svc := newTestExpiryService(items, users, notifications, m, nil)
	require.NoError(t, svc.RunDailyScan(context.Background()))

	assert.Len(t, notifications.created, 1)
	assert.Equal(t, []int64{10}, items.markNotified)
}

// A failed notification insert aborts the item before the latch is set,
// so the next scan retries it.
func TestRunDailyScanRecordFailureSkipsLatch(t *testing.T) {
	items := &fakeItemRepo{items: []*entity.Item{
		expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
	}}
	users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
	notifications := &fakeNotificationRepo{createErr: errors.New("db down")}
	m := &fakeMailer{}

	svc := newTestExpiryService(items, users, notifications, m, nil)
	require.NoError(t, svc.RunDailyScan(context.Background()))

	assert.Empty(t, m.sent)
	assert.Empty(t, items.markNotified)
}

func TestRunDailyScanSecondPassIsSilent(t *testing.T) {
	items := &fakeItemRepo{items: []*entity.Item{
		expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
	}}
	users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
	notifications := &fakeNotificationRepo{}

	svc := newTestExpiryService(items, users, notifications, &fakeMailer{}, nil)

	require.NoError(t, svc.RunDailyScan(context.Background()))
	require.NoError(t, svc.RunDailyScan(context.Background()))

	// The latch set by the first pass suppresses the second.
	assert.Len(t, notifications.created, 1)
}

func TestRunDailyScanPreferenceSuppression(t *testing.T) {
	t.Run("user email off sends nothing over SMTP", func(t *testing.T) {
		user := defaultTestUser(1)
		user.EmailNotifications = false

		items := &fakeItemRepo{items: []*entity.Item{
			expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
		}}
		users := &fakeUserRepo{users: map[int64]*entity.User{1: user}}
		notifications := &fakeNotificationRepo{}
		m := &fakeMailer{}

		svc := newTestExpiryService(items, users, notifications, m, nil)
		require.NoError(t, svc.RunDailyScan(context.Background()))

		assert.Empty(t, m.sent)
		require.Len(t, notifications.created, 1)
		assert.False(t, notifications.created[0].Read)
	})

	t.Run("user in-app off pre-marks the record read", func(t *testing.T) {
		user := defaultTestUser(1)
		user.InAppNotifications = false

		items := &fakeItemRepo{items: []*entity.Item{
			expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
		}}
		users := &fakeUserRepo{users: map[int64]*entity.User{1: user}}
		notifications := &fakeNotificationRepo{}
		m := &fakeMailer{}

		svc := newTestExpiryService(items, users, notifications, m, nil)
		require.NoError(t, svc.RunDailyScan(context.Background()))

		require.Len(t, notifications.created, 1)
		assert.True(t, notifications.created[0].Read)
		assert.Equal(t, []string{"user@example.com"}, m.sent)
	})

	t.Run("master switch off suppresses the whole dispatch", func(t *testing.T) {
		user := defaultTestUser(1)
		user.ExpiryAlerts = false

		items := &fakeItemRepo{items: []*entity.Item{
			expiringItem(10, 1, entity.NewDate(2026, 8, 28)),
		}}
		users := &fakeUserRepo{users: map[int64]*entity.User{1: user}}
		notifications := &fakeNotificationRepo{}

		svc := newTestExpiryService(items, users, notifications, &fakeMailer{}, nil)
		require.NoError(t, svc.RunDailyScan(context.Background()))

		assert.Empty(t, notifications.created)
		assert.Empty(t, items.markNotified)
	})
}

func TestRunDailyScanSkipsGroupOnUserLoadFailure(t *testing.T) {
	items := &fakeItemRepo{items: []*entity.Item{
		expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
		expiringItem(11, 2, entity.NewDate(2026, 8, 29)),
	}}
	// User 2 does not exist; user 1 does.
	users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
	notifications := &fakeNotificationRepo{}

	svc := newTestExpiryService(items, users, notifications, &fakeMailer{}, nil)
	require.NoError(t, svc.RunDailyScan(context.Background()))

	require.Len(t, notifications.created, 1)
	assert.Equal(t, int64(1), notifications.created[0].UserID)
}

func TestRunDailyScanPublishesToQueueWhenWired(t *testing.T) {
	items := &fakeItemRepo{items: []*entity.Item{
		expiringItem(10, 1, entity.NewDate(2026, 8, 29)),
	}}
	users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
	notifications := &fakeNotificationRepo{}
	m := &fakeMailer{}
	q := &fakePublisher{}

	svc := newTestExpiryService(items, users, notifications, m, q)
	require.NoError(t, svc.RunDailyScan(context.Background()))

	// The queue takes precedence over the direct transport.
	assert.Empty(t, m.sent)
	require.Len(t, q.tasks, 1)

	task := q.tasks[0]
	assert.Equal(t, TaskTypeSendEmail, task.Type)
	assert.Equal(t, "user@example.com", task.Data["to"])
	assert.Equal(t, "Milk expires tomorrow", task.Data["subject"])
	assert.NotEmpty(t, task.Data["body"])
}

func TestRunDailyScanQueryFailure(t *testing.T) {
	items := &fakeItemRepo{findErr: errors.New("db down")}
	users := &fakeUserRepo{}
	notifications := &fakeNotificationRepo{}

	svc := newTestExpiryService(items, users, notifications, nil, nil)
	assert.Error(t, svc.RunDailyScan(context.Background()))
}

func TestRunUrgentScanDebounce(t *testing.T) {
	item := expiringItem(10, 1, entity.NewDate(2026, 8, 28))
	item.NotifiedForExpiry = true
	recent := testNow.Add(-time.Hour)
	item.LastNotificationSent = &recent

	items := &fakeItemRepo{items: []*entity.Item{item}}
	users := &fakeUserRepo{users: map[int64]*entity.User{1: defaultTestUser(1)}}
	notifications := &fakeNotificationRepo{}

	svc := newTestExpiryService(items, users, notifications, &fakeMailer{}, nil)
	require.NoError(t, svc.RunUrgentScan(context.Background()))

	// Notified an hour ago: inside the resend interval, so nothing fires.
	assert.Empty(t, notifications.created)

	// Five hours later the same item fires again despite the latch.
	stale := testNow.Add(-5 * time.Hour)
	item.LastNotificationSent = &stale

	require.NoError(t, svc.RunUrgentScan(context.Background()))
	require.Len(t, notifications.created, 1)
	assert.Equal(t, "Milk expires today", notifications.created[0].Title)
}
