package service

import (
	"time"

	"stockflow-backend/internal/repository"

	"github.com/google/uuid"
)

type DashboardService interface {
	GetDashboardStats(ownerID uuid.UUID) (*repository.DashboardStats, error)
	GetSalesSummary(ownerID uuid.UUID, days int) (*repository.SalesSummary, error)
}

type dashboardService struct {
	dashRepo repository.DashboardRepository
	saleRepo repository.SaleRepository
}

func NewDashboardService(dashRepo repository.DashboardRepository, saleRepo repository.SaleRepository) DashboardService {
	return &dashboardService{dashRepo: dashRepo, saleRepo: saleRepo}
}

func (s *dashboardService) GetDashboardStats(ownerID uuid.UUID) (*repository.DashboardStats, error) {
	return s.dashRepo.GetDashboardStats(ownerID)
}

func (s *dashboardService) GetSalesSummary(ownerID uuid.UUID, days int) (*repository.SalesSummary, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	return s.saleRepo.GetSalesSummary(ownerID, startDate, endDate)
}
