package service

import (
	"fmt"

	"stockflow-backend/internal/model"
	"stockflow-backend/internal/repository"
	"stockflow-backend/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ForecastHorizonDays triggers a forecast alert when a product's remaining
// inventory covers fewer days at the current sales pace.
const ForecastHorizonDays = 7.0

// NotificationService evaluates stock thresholds after each sale and emits
// alerts. Everything here is best-effort: failures are logged, never
// returned, and never affect the triggering sale.
type NotificationService interface {
	CheckLowStock(product *model.Product)
	CheckForecast(product *model.Product)
	GetNotifications(ownerID uuid.UUID) ([]model.Notification, error)
	MarkRead(id, ownerID uuid.UUID) error
}

type notificationService struct {
	repo  repository.NotificationRepository
	wsHub *ws.Hub
	log   *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, hub *ws.Hub, log *zap.Logger) NotificationService {
	return &notificationService{repo: repo, wsHub: hub, log: log}
}

func (s *notificationService) CheckLowStock(product *model.Product) {
	if product.Inventory >= repository.LowStockThreshold {
		return
	}
	msg := fmt.Sprintf("Low stock: %q has %d units left", product.Name, product.Inventory)
	s.emit(product, model.NotifyLowStock, msg)
}

func (s *notificationService) CheckForecast(product *model.Product) {
	if product.DailySalesAvg <= 0 {
		return
	}
	daysLeft := float64(product.Inventory) / product.DailySalesAvg
	if daysLeft >= ForecastHorizonDays {
		return
	}
	msg := fmt.Sprintf("%q will run out in about %.1f days at the current sales pace", product.Name, daysLeft)
	s.emit(product, model.NotifyForecast, msg)
}

// emit persists the alert unless an unread one of the same kind already
// exists for the product, then pushes it to connected clients.
func (s *notificationService) emit(product *model.Product, kind model.NotificationKind, message string) {
	exists, err := s.repo.HasUnread(product.ID, kind)
	if err != nil {
		s.log.Warn("alert dedup check failed", zap.String("product_id", product.ID.String()), zap.Error(err))
		return
	}
	if exists {
		return
	}

	n := &model.Notification{
		OwnerID:   product.OwnerID,
		ProductID: product.ID,
		Kind:      kind,
		Message:   message,
	}
	if err := s.repo.Create(n); err != nil {
		s.log.Warn("alert write failed", zap.String("product_id", product.ID.String()), zap.Error(err))
		return
	}

	if s.wsHub != nil {
		s.wsHub.PublishJSON(map[string]interface{}{
			"type":       "stock_alert",
			"kind":       kind,
			"owner_id":   product.OwnerID,
			"product_id": product.ID,
			"message":    message,
		})
	}
}

func (s *notificationService) GetNotifications(ownerID uuid.UUID) ([]model.Notification, error) {
	return s.repo.FindByOwner(ownerID)
}

func (s *notificationService) MarkRead(id, ownerID uuid.UUID) error {
	return s.repo.MarkRead(id, ownerID)
}
