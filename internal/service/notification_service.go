package service

import (
	"context"
	"encoding/json"
	"time"

	"royaltriangle/internal/models"
	"royaltriangle/internal/repository"
	"royaltriangle/pkg/logger"

	"go.uber.org/zap"
)

// Broadcaster pushes payloads to live websocket connections.
type Broadcaster interface {
	BroadcastToUser(userID uint, payload interface{})
	BroadcastAdmins(payload interface{})
}

type NotificationService struct {
	repo NotificationRepository
	hub  Broadcaster
	now  func() time.Time
}

func NewNotificationService(repo NotificationRepository, hub Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, hub: hub, now: time.Now}
}

// Notify stores the notification and pushes it to the user's websocket clients.
// Failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, userID uint, kind, title, body string, data map[string]interface{}) {
	var dataJSON string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			logger.Logger().Warn("notification data not encodable", zap.String("type", kind), zap.Error(err))
		} else {
			dataJSON = string(b)
		}
	}
	n := &models.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		Data:      dataJSON,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		logger.Logger().Error("failed to store notification",
			zap.Uint("user_id", userID), zap.String("type", kind), zap.Error(err))
	}
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToUser(userID, map[string]interface{}{
		"type":         "notification",
		"notification": n,
		"data":         data,
	})
	// activity frame for admin dashboards
	s.hub.BroadcastAdmins(map[string]interface{}{
		"type":   "activity",
		"userId": userID,
		"kind":   kind,
		"title":  title,
		"at":     n.CreatedAt,
	})
}

func (s *NotificationService) List(ctx context.Context, userID uint, p repository.Page) ([]models.Notification, error) {
	p = p.Normalize()
	list, err := s.repo.ListByUserID(ctx, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	return notFound(s.repo.MarkRead(ctx, id, userID, s.now()), ErrNotificationNotFound)
}
