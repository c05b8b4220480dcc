package repository

import (
	"time"

	"stockflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	// CreateBatch inserts all lines of one order in a single bulk write.
	CreateBatch(tx *gorm.DB, sales []*model.Sale) error
	FindByOwner(ownerID uuid.UUID) ([]model.Sale, error)
	FindByIDAndOwner(id, ownerID uuid.UUID) (*model.Sale, error)
	// SetBillResult moves bill_status forward for a committed order.
	// Transitions are monotonic: PENDING rows move to GENERATED or FAILED,
	// settled rows are never rewound.
	SetBillResult(ids []uuid.UUID, status model.BillStatus, pdfURL *string) error
	SumQuantityByProduct(productID, ownerID uuid.UUID) (int64, error)
	FirstSaleDate(productID, ownerID uuid.UUID) (*time.Time, error)
	GetSalesSummary(ownerID uuid.UUID, startDate, endDate time.Time) (*SalesSummary, error)
}

// SalesSummary aggregates an owner's sales over a date range.
type SalesSummary struct {
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
	UnitsSold int64   `json:"units_sold"`
	SaleCount int64   `json:"sale_count"`
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) CreateBatch(tx *gorm.DB, sales []*model.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	return tx.Create(&sales).Error
}

func (r *saleRepo) FindByOwner(ownerID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.Where("owner_id = ?", ownerID).Order("date DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByIDAndOwner(id, ownerID uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.First(&sale, "id = ? AND owner_id = ?", id, ownerID).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) SetBillResult(ids []uuid.UUID, status model.BillStatus, pdfURL *string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Sale{}).
		Where("id IN ? AND bill_status = ?", ids, model.BillPending).
		Updates(map[string]interface{}{
			"bill_status": status,
			"pdf_url":     pdfURL,
		}).Error
}

func (r *saleRepo) SumQuantityByProduct(productID, ownerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.Model(&model.Sale{}).
		Where("product_id = ? AND owner_id = ?", productID, ownerID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *saleRepo) FirstSaleDate(productID, ownerID uuid.UUID) (*time.Time, error) {
	var sale model.Sale
	err := r.db.Where("product_id = ? AND owner_id = ?", productID, ownerID).
		Order("date ASC").
		First(&sale).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sale.Date, nil
}

func (r *saleRepo) GetSalesSummary(ownerID uuid.UUID, startDate, endDate time.Time) (*SalesSummary, error) {
	var summary SalesSummary

	err := r.db.Model(&model.Sale{}).
		Where("owner_id = ? AND date BETWEEN ? AND ?", ownerID, startDate, endDate).
		Select(`
			COALESCE(SUM(amount), 0) as revenue,
			COALESCE(SUM(amount - cp * quantity), 0) as profit,
			COALESCE(SUM(quantity), 0) as units_sold,
			COUNT(*) as sale_count
		`).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	return &summary, nil
}
