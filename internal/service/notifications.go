package service

import (
	"context"

	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"
)

// NotificationQueries is the read/manage side of the notification store.
// Creation goes exclusively through the Dispatcher.
type NotificationQueries interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id, userID string) error
}

type NotificationQueryService struct {
	notifications repository.Notifications
}

func NewNotificationQueryService(notifications repository.Notifications) *NotificationQueryService {
	return &NotificationQueryService{notifications: notifications}
}

var _ NotificationQueries = (*NotificationQueryService)(nil)

func (s *NotificationQueryService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return s.notifications.List(ctx, userID, unreadOnly, clampLimit(limit))
}

func (s *NotificationQueryService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notifications.MarkRead(ctx, id, userID)
}

func (s *NotificationQueryService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationQueryService) Delete(ctx context.Context, id, userID string) error {
	return s.notifications.Delete(ctx, id, userID)
}
