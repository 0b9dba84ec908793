package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

// Repository defines persistence operations for the audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.AuditLogEntry) error
	List(ctx context.Context, params pagination.Params, filters Filters) (*EntryList, error)
}

// Filters narrow audit log listings.
type Filters struct {
	Action      *enums.AuditAction
	EntityType  string
	EntityID    *uuid.UUID
	ActorUserID *uuid.UUID
}

// EntryList is one page of audit entries plus the cursor for the next page.
type EntryList struct {
	Entries    []models.AuditLogEntry
	NextCursor string
}
