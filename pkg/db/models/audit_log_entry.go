package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// AuditLogEntry records an immutable mutation event. Rows are append-only:
// nothing in the codebase updates or deletes them.
type AuditLogEntry struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Action      enums.AuditAction `gorm:"column:action;type:text;not null;index"`
	EntityType  string            `gorm:"column:entity_type;not null;index:idx_audit_entity"`
	EntityID    uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index:idx_audit_entity"`
	ActorUserID uuid.UUID         `gorm:"column:actor_user_id;type:uuid;not null;index"`
	ActorRole   enums.ActorRole   `gorm:"column:actor_role;type:text;not null"`
	Detail      json.RawMessage   `gorm:"column:detail;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
