package model

import "github.com/google/uuid"

type NotificationKind string

const (
	NotifyLowStock NotificationKind = "LOW_STOCK"
	NotifyForecast NotificationKind = "FORECAST"
)

type Notification struct {
	BaseModel
	OwnerID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"owner_id"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Kind      NotificationKind `gorm:"type:varchar(20);not null" json:"kind"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Read      bool             `gorm:"default:false" json:"read"`
}
