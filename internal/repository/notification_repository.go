package repository

import (
	"context"
	"time"

	"aquaserve-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepositoryInterface stores and serves in-app notifications.
type NotificationRepositoryInterface interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkDelivered(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error)
}

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *gorm.DB
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification creates a notification row
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListNotifications retrieves a user's notifications, newest first
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = false")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}

	err := query.
		Preload("FromUser").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error

	return notifications, total, err
}

// CountUnread counts a user's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_user_id = ? AND read = false", userID).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification as read. Scoped to the owner so a user
// cannot touch another user's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND to_user_id = ? AND read = false", id, userID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification for a user as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_user_id = ? AND read = false", userID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": now,
		})
	return result.RowsAffected, result.Error
}

// MarkDelivered records that a batch of notifications reached the user's
// client. Scoped to the owner like MarkRead.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id IN ? AND to_user_id = ? AND delivered = false", ids, userID).
		Updates(map[string]interface{}{
			"delivered":    true,
			"delivered_at": now,
		})
	return result.RowsAffected, result.Error
}
