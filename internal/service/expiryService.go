package service

import (
	"context"
	"fmt"
	"time"

	repository "freshkeeper/internal/database/postgres"
	"freshkeeper/internal/entity"
	"freshkeeper/internal/pkg/eligibility"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// expiryScanStatuses lists the lifecycle statuses the scans consider.
// Only active inventory alerts; completed and used items never do.
var expiryScanStatuses = []entity.ItemStatus{entity.ItemStatusPending}

const directEmailTimeout = 10 * time.Second

type expiryService struct {
	itemRepo         repository.ItemRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	mailer           Mailer        // direct SMTP path; may be nil
	queue            TaskPublisher // queued email path; may be nil
	now              func() time.Time
}

// NewExpiryService creates the scan-and-dispatch service. Both mailer and
// queue may be nil; when the queue is present it takes precedence for the
// email channel, and when neither is wired the email channel is a logged
// no-op.
func NewExpiryService(
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	mailer Mailer,
	queue TaskPublisher,
) ExpiryService {
	return &expiryService{
		itemRepo:         itemRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		mailer:           mailer,
		queue:            queue,
		now:              time.Now,
	}
}

// RunDailyScan walks all active items whose expiry date falls inside the
// warn window (today through today+MaxDayOffset) and dispatches every
// firing trigger. A query failure aborts the whole iteration; per-item
// failures are logged and skipped.
func (s *expiryService) RunDailyScan(ctx context.Context) error {
	now := s.now()
	from := eligibility.StartOfDay(now)
	to := eligibility.EndOfDay(from.AddDate(0, 0, eligibility.MaxDayOffset))

	items, err := s.itemRepo.FindExpiringBetween(ctx, from, to, expiryScanStatuses)
	if err != nil {
		return fmt.Errorf("failed to query expiring items: %w", err)
	}

	s.processCandidates(ctx, "daily", items, now)
	return nil
}

// RunUrgentScan covers items expiring within the current calendar day.
// The urgent path ignores the cycle latch and the configured offsets so a
// same-day expiry is never silently missed; the 4-hour debounce in the
// evaluator keeps hourly ticks from re-sending.
func (s *expiryService) RunUrgentScan(ctx context.Context) error {
	now := s.now()

	items, err := s.itemRepo.FindUrgent(ctx, eligibility.StartOfDay(now), eligibility.EndOfDay(now))
	if err != nil {
		return fmt.Errorf("failed to query urgent items: %w", err)
	}

	s.processCandidates(ctx, "urgent", items, now)
	return nil
}

// processCandidates groups candidates by owner so each user record is
// fetched once per scan. Items of a user whose record cannot be loaded
// are skipped for this tick.
func (s *expiryService) processCandidates(ctx context.Context, kind string, items []*entity.Item, now time.Time) {
	if len(items) == 0 {
		logrus.Debugf("No candidate items for %s expiry scan", kind)
		return
	}

	byUser := make(map[int64][]*entity.Item)
	for _, item := range items {
		byUser[item.UserID] = append(byUser[item.UserID], item)
	}

	dispatched := 0
	failed := 0

	for userID, userItems := range byUser {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			logrus.Errorf("Failed to load user %d for %s scan, skipping %d items: %v",
				userID, kind, len(userItems), err)
			failed += len(userItems)
			continue
		}

		for _, item := range userItems {
			decision := eligibility.Evaluate(item, user, now)
			if !decision.Fire {
				continue
			}

			if err := s.dispatch(ctx, item, user, decision, now); err != nil {
				logrus.Errorf("Failed to dispatch expiry alert for item %d: %v", item.ID, err)
				failed++
				continue
			}
			dispatched++
		}
	}

	logrus.WithFields(logrus.Fields{
		"scan":       kind,
		"candidates": len(items),
		"dispatched": dispatched,
		"failed":     failed,
	}).Info("Expiry scan completed")
}

// dispatch performs the three side effects of a firing trigger, in order:
// create the durable notification record, attempt the email channel, set
// the dedup latch. The email attempt is isolated: its failure is logged
// and never blocks the record or the latch. The effects are not
// transactional; if the latch write fails after the record was created
// the next scan may produce a duplicate, which is the accepted
// at-least-once failure mode.
func (s *expiryService) dispatch(ctx context.Context, item *entity.Item, user *entity.User, decision eligibility.Decision, now time.Time) error {
	title, message := formatAlert(item.Name, decision.DaysUntilExpiry)

	notification := &entity.Notification{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		Type:    entity.NotificationTypeExpiryAlert,
		Title:   title,
		Message: message,
		// When the in-app channel is not selected the record is still
		// created, pre-marked read: history is preserved without
		// surfacing in the unread feed.
		Read: !decision.Channels.InApp,
		Data: entity.ExpiryAlertData{
			ItemID:          item.ID,
			ItemName:        item.Name,
			ExpiryDate:      *item.ExpiryDate,
			DaysUntilExpiry: decision.DaysUntilExpiry,
		},
		CreatedAt: now,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if decision.Channels.Email {
		s.sendEmail(ctx, user, title, message, item)
	}

	if err := s.itemRepo.MarkNotified(ctx, item.ID, now); err != nil {
		return fmt.Errorf("failed to mark item %d notified: %w", item.ID, err)
	}

	// Keep the in-memory copy in sync so a second evaluation within the
	// same scan pass cannot re-fire.
	item.NotifiedForExpiry = true
	sentAt := now
	item.LastNotificationSent = &sentAt

	logrus.WithFields(logrus.Fields{
		"item_id": item.ID,
		"user_id": user.ID,
		"days":    decision.DaysUntilExpiry,
		"urgent":  decision.Urgent,
		"email":   decision.Channels.Email,
	}).Info("Expiry alert dispatched")
	return nil
}

// sendEmail delivers through the queue when one is wired, otherwise
// directly over SMTP with a bounded timeout. Failures are logged only.
func (s *expiryService) sendEmail(ctx context.Context, user *entity.User, subject, message string, item *entity.Item) {
	body := formatEmailBody(user.Name, message, item)

	if s.queue != nil {
		task := &Task{
			ID:   uuid.NewString(),
			Type: TaskTypeSendEmail,
			Data: map[string]interface{}{
				"to":      user.Email,
				"subject": subject,
				"body":    body,
			},
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			logrus.Errorf("Failed to enqueue expiry email for %s: %v", user.Email, err)
		}
		return
	}

	if s.mailer == nil {
		logrus.Debug("Email channel selected but no transport configured")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, directEmailTimeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, user.Email, subject, body); err != nil {
		logrus.Errorf("Failed to send expiry email to %s: %v", user.Email, err)
	}
}

// formatAlert builds the title and message for a given day offset. The
// exact wording is presentational, but the distinction between expired,
// tomorrow and in-N-days is part of the contract.
func formatAlert(name string, days int) (title, message string) {
	switch {
	case days < 0:
		title = fmt.Sprintf("%s has expired", name)
		message = fmt.Sprintf("%s expired %d days ago. Time to toss it.", name, -days)
	case days == 0:
		title = fmt.Sprintf("%s expires today", name)
		message = fmt.Sprintf("%s expires today. Use it or lose it!", name)
	case days == 1:
		title = fmt.Sprintf("%s expires tomorrow", name)
		message = fmt.Sprintf("%s expires tomorrow. Plan to use it soon.", name)
	default:
		title = fmt.Sprintf("%s expires in %d days", name, days)
		message = fmt.Sprintf("%s expires in %d days.", name, days)
	}
	return title, message
}

func formatEmailBody(userName, message string, item *entity.Item) string {
	return fmt.Sprintf(
		`<html><body>
<p>Hi %s,</p>
<p>%s</p>
<p>Item: <b>%s</b> (%.0f %s), expiry date: %s</p>
<p>— FreshKeeper</p>
</body></html>`,
		userName, message, item.Name, item.Quantity, item.Unit, item.ExpiryDate.Format("2006-01-02"))
}
