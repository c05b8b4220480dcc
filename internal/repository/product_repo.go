package repository

import (
	"time"

	"stockflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindByOwner(ownerID uuid.UUID) ([]model.Product, error)
	FindByIDAndOwner(id, ownerID uuid.UUID) (*model.Product, error)
	FindBySKU(ownerID uuid.UUID, sku string) (*model.Product, error)
	FindAll() ([]model.Product, error)
	Update(product *model.Product) error
	// DeductInventory is a single conditional write: it only succeeds when
	// the product still holds at least qty units. Returns the number of
	// rows touched so callers can detect a concurrent shortfall.
	DeductInventory(tx *gorm.DB, id, ownerID uuid.UUID, qty int, soldAt time.Time) (int64, error)
	UpdateSalesAvg(id uuid.UUID, avg float64) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindByOwner(ownerID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("owner_id = ?", ownerID).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByIDAndOwner(id, ownerID uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ? AND owner_id = ?", id, ownerID).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ownerID uuid.UUID, sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "owner_id = ? AND sku = ?", ownerID, sku).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Find(&products).Error
	return products, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) DeductInventory(tx *gorm.DB, id, ownerID uuid.UUID, qty int, soldAt time.Time) (int64, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND owner_id = ? AND inventory >= ?", id, ownerID, qty).
		Updates(map[string]interface{}{
			"inventory":    gorm.Expr("inventory - ?", qty),
			"last_sold_at": soldAt,
		})
	return res.RowsAffected, res.Error
}

func (r *productRepo) UpdateSalesAvg(id uuid.UUID, avg float64) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Update("daily_sales_avg", avg).Error
}
