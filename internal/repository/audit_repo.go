package repository

import (
	"encoding/json"

	"stockflow-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(actorID uuid.UUID, action, entityType string, entityID uuid.UUID, before, after interface{}) error
	FindByActor(actorID uuid.UUID) ([]model.AuditLog, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

// Log appends one audit entry. Snapshots are JSON-encoded; a nil snapshot
// stays a NULL column.
func (r *auditRepo) Log(actorID uuid.UUID, action, entityType string, entityID uuid.UUID, before, after interface{}) error {
	entry := &model.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if before != nil {
		b, err := json.Marshal(before)
		if err != nil {
			return err
		}
		s := string(b)
		entry.Before = &s
	}
	if after != nil {
		b, err := json.Marshal(after)
		if err != nil {
			return err
		}
		s := string(b)
		entry.After = &s
	}

	return r.db.Create(entry).Error
}

func (r *auditRepo) FindByActor(actorID uuid.UUID) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.Where("actor_id = ?", actorID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
