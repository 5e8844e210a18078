package services

import (
	"context"
	"errors"
	"time"

	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationService delivers in-app notifications. Dispatch is
// fire-and-forget: a delivery failure is logged and never propagated
// to the operation that triggered it.
type NotificationService struct {
	repo   repository.NotificationRepositoryInterface
	logger *logrus.Entry
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo repository.NotificationRepositoryInterface, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger.WithField("component", "notifications"),
	}
}

// Notify dispatches a notification asynchronously. A background context
// is used because the triggering HTTP request may already be finished.
func (s *NotificationService) Notify(fromUserID *uuid.UUID, toUserID uuid.UUID, message string) {
	if s.repo == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		notification := &models.Notification{
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Message:    message,
		}
		if err := s.repo.CreateNotification(ctx, notification); err != nil {
			s.logger.WithError(err).WithField("toUserId", toUserID).Warn("failed to deliver notification")
		}
	}()
}

// ListForUser returns a user's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	return s.repo.ListNotifications(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount returns the number of unread notifications for a user
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("Notification not found")
		}
		return err
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read and returns
// how many were updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// MarkDelivered records client-side delivery for a batch of the user's
// notifications and returns how many were updated.
func (s *NotificationService) MarkDelivered(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, validationf("No notification ids provided")
	}
	return s.repo.MarkDelivered(ctx, ids, userID)
}
