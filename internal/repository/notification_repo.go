package repository

import (
	"stockflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(n *model.Notification) error
	FindByOwner(ownerID uuid.UUID) ([]model.Notification, error)
	HasUnread(productID uuid.UUID, kind model.NotificationKind) (bool, error)
	MarkRead(id, ownerID uuid.UUID) error
}

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db}
}

func (r *notificationRepo) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepo) FindByOwner(ownerID uuid.UUID) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

// HasUnread reports whether an unread alert of the same kind already exists
// for the product. Used to suppress duplicate alerts.
func (r *notificationRepo) HasUnread(productID uuid.UUID, kind model.NotificationKind) (bool, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("product_id = ? AND kind = ? AND read = ?", productID, kind, false).
		Count(&count).Error
	return count > 0, err
}

func (r *notificationRepo) MarkRead(id, ownerID uuid.UUID) error {
	res := r.db.Model(&model.Notification{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
