package repository

import (
	"stockflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	UpdatePassword(id uuid.UUID, hashedPassword string) error
	IncrementSalesCreated(tx *gorm.DB, id uuid.UUID, n int) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(user *model.User) error {
	return r.db.Save(user).Error
}

// UpdatePassword writes the already-hashed password directly, bypassing
// model hooks.
func (r *userRepo) UpdatePassword(id uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hashedPassword).Error
}

func (r *userRepo) IncrementSalesCreated(tx *gorm.DB, id uuid.UUID, n int) error {
	return tx.Model(&model.User{}).
		Where("id = ?", id).
		Update("total_sales_created", gorm.Expr("total_sales_created + ?", n)).Error
}
