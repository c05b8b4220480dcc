package service

import (
	"errors"

	"stockflow-backend/internal/model"
	"stockflow-backend/internal/repository"
	"stockflow-backend/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrSKUExists       = errors.New("SKU already exists")
	ErrProductNotFound = errors.New("product not found or unauthorized")
)

type InventoryService interface {
	CreateProduct(ownerID uuid.UUID, req *model.Product) error
	UpdateProduct(ownerID, id uuid.UUID, req *model.Product) (*model.Product, error)
	GetProducts(ownerID uuid.UUID) ([]model.Product, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
}

func NewInventoryService(pRepo repository.ProductRepository) InventoryService {
	return &inventoryService{productRepo: pRepo}
}

func (s *inventoryService) CreateProduct(ownerID uuid.UUID, req *model.Product) error {
	req.OwnerID = ownerID

	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{validator.FirstError(errs)}
	}

	// SKU is unique within an owner's catalog
	existing, _ := s.productRepo.FindBySKU(ownerID, req.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return ErrSKUExists
	}

	return s.productRepo.Create(req)
}

func (s *inventoryService) UpdateProduct(ownerID, id uuid.UUID, req *model.Product) (*model.Product, error) {
	existing, err := s.productRepo.FindByIDAndOwner(id, ownerID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	existing.Name = req.Name
	existing.SKU = req.SKU
	existing.Unit = req.Unit
	existing.Inventory = req.Inventory
	existing.Price = req.Price
	existing.CP = req.CP

	if errs := validator.ValidateStruct(existing); len(errs) > 0 {
		return nil, &ValidationError{validator.FirstError(errs)}
	}

	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *inventoryService) GetProducts(ownerID uuid.UUID) ([]model.Product, error) {
	return s.productRepo.FindByOwner(ownerID)
}
