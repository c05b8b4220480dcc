package model

import "github.com/google/uuid"

const ActionCreateSale = "CREATE_SALE"

// AuditLog records who did what to which entity, with JSON-encoded
// before/after snapshots. Append-only.
type AuditLog struct {
	BaseModel
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`
	Action     string    `gorm:"type:varchar(50);not null" json:"action"`
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index" json:"entity_id"`
	Before     *string   `gorm:"type:text" json:"before,omitempty"`
	After      *string   `gorm:"type:text" json:"after,omitempty"`
}
