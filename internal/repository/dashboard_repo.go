package repository

import (
	"stockflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DashboardStats is the owner's overview block.
type DashboardStats struct {
	TotalProducts  int64   `json:"total_products"`
	LowStockCount  int64   `json:"low_stock_count"`
	TotalValuation float64 `json:"total_valuation"`
}

// LowStockThreshold marks products considered at risk of stock-out.
const LowStockThreshold = 10

type DashboardRepository interface {
	GetDashboardStats(ownerID uuid.UUID) (*DashboardStats, error)
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetDashboardStats(ownerID uuid.UUID) (*DashboardStats, error) {
	var stats DashboardStats

	if err := r.db.Model(&model.Product{}).
		Where("owner_id = ?", ownerID).
		Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&model.Product{}).
		Where("owner_id = ? AND inventory < ?", ownerID, LowStockThreshold).
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	// Valuation = SUM(inventory * price) over the owner's catalog
	if err := r.db.Model(&model.Product{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(inventory * price), 0)").
		Scan(&stats.TotalValuation).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
