package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/repository"
	"gorm.io/datatypes"
)

// NotificationService persists notifications and pushes them to connected
// clients. Callers treat delivery as best effort.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	events           EventPublisher
}

func NewNotificationService(notificationRepo repository.NotificationRepository, events EventPublisher) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		events:           events,
	}
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	notification := &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now(),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	if s.events != nil {
		s.events.PushToUser(userID, EventNotification, notification)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}
