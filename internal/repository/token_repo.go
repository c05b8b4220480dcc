package repository

import (
	"stockflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenRepository interface {
	Replace(token *model.ResetToken) error
	FindByUser(userID uuid.UUID) (*model.ResetToken, error)
	Delete(token *model.ResetToken) error
}

type tokenRepo struct {
	db *gorm.DB
}

func NewTokenRepo(db *gorm.DB) TokenRepository {
	return &tokenRepo{db}
}

// Replace drops any live token for the user before saving the new one, so
// only the most recent reset link works.
func (r *tokenRepo) Replace(token *model.ResetToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("user_id = ?", token.UserID).
			Delete(&model.ResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *tokenRepo) FindByUser(userID uuid.UUID) (*model.ResetToken, error) {
	var token model.ResetToken
	err := r.db.First(&token, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepo) Delete(token *model.ResetToken) error {
	return r.db.Unscoped().Delete(token).Error
}
