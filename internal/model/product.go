package model

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_owner_sku" json:"owner_id"`
	Owner   *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	SKU       string  `gorm:"type:varchar(50);not null;uniqueIndex:idx_owner_sku" json:"sku" validate:"required"`
	Name      string  `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Unit      string  `gorm:"type:varchar(20)" json:"unit"`
	Inventory int     `gorm:"default:0;check:inventory >= 0" json:"inventory" validate:"gte=0"`
	Price     float64 `gorm:"type:decimal(10,2);default:0" json:"price" validate:"gte=0"`
	CP        float64 `gorm:"type:decimal(10,2);default:0" json:"cp" validate:"gte=0"` // cost price

	// Dead stock / forecast tracking
	LastSoldAt    *time.Time `json:"last_sold_at,omitempty"`
	DailySalesAvg float64    `gorm:"default:0" json:"daily_sales_avg"` // recomputed by the sales-avg batch job
}
