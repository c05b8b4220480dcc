package model

import (
	"time"

	"github.com/google/uuid"
)

// ResetTokenTTL bounds how long a password reset link stays usable.
const ResetTokenTTL = time.Hour

// ResetToken stores the bcrypt hash of a password reset token. At most one
// live token exists per user; requesting a new one replaces the old.
type ResetToken struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	TokenHash string    `gorm:"type:varchar(255);not null" json:"-"`
}

func (t *ResetToken) Expired() bool {
	return time.Since(t.CreatedAt) > ResetTokenTTL
}
