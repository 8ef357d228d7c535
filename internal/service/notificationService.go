package service

import (
	"context"

	repository "freshkeeper/internal/database/postgres"
	"freshkeeper/internal/entity"
)

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	return s.notificationRepo.GetByUserID(ctx, userID, unreadOnly, limit)
}

func (s *notificationService) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id string, userID int64) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *notificationService) DeleteNotification(ctx context.Context, id string, userID int64) error {
	return s.notificationRepo.Delete(ctx, id, userID)
}
