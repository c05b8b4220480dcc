package service

import (
	"math"
	"time"

	"stockflow-backend/internal/repository"

	"go.uber.org/zap"
)

// StatsService owns the deferred recompute of each product's
// daily_sales_avg. The pipeline leaves the field untouched per sale; this
// batch job keeps it fresh within the configured interval.
type StatsService interface {
	// RecalculateSalesAverages recomputes daily_sales_avg for every product
	// with recorded sales and returns how many were updated.
	RecalculateSalesAverages() (int, error)
}

type statsService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	log         *zap.Logger
}

func NewStatsService(pRepo repository.ProductRepository, sRepo repository.SaleRepository, log *zap.Logger) StatsService {
	return &statsService{productRepo: pRepo, saleRepo: sRepo, log: log}
}

func (s *statsService) RecalculateSalesAverages() (int, error) {
	products, err := s.productRepo.FindAll()
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range products {
		p := &products[i]

		total, err := s.saleRepo.SumQuantityByProduct(p.ID, p.OwnerID)
		if err != nil {
			s.log.Warn("sales sum failed", zap.String("product_id", p.ID.String()), zap.Error(err))
			continue
		}
		if total == 0 {
			continue
		}

		first, err := s.saleRepo.FirstSaleDate(p.ID, p.OwnerID)
		if err != nil {
			s.log.Warn("first sale lookup failed", zap.String("product_id", p.ID.String()), zap.Error(err))
			continue
		}

		days := 1.0
		if first != nil {
			days = math.Max(1, math.Ceil(time.Since(*first).Hours()/24))
		}

		avg := float64(total) / days
		if err := s.productRepo.UpdateSalesAvg(p.ID, avg); err != nil {
			s.log.Warn("sales avg update failed", zap.String("product_id", p.ID.String()), zap.Error(err))
			continue
		}
		updated++
	}

	return updated, nil
}
