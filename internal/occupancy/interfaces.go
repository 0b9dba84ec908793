package occupancy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
)

// Repository defines the reconciliation queries between units and leases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error)
	HasActiveLease(ctx context.Context, unitID uuid.UUID) (bool, error)
	MarkOccupied(ctx context.Context, propertyID *uuid.UUID) (int64, error)
	MarkVacant(ctx context.Context, propertyID *uuid.UUID) (int64, error)
	RefreshPropertyCounts(ctx context.Context, propertyID *uuid.UUID) error
}

// Report summarizes one reconciliation pass.
type Report struct {
	MarkedOccupied int64 `json:"marked_occupied"`
	MarkedVacant   int64 `json:"marked_vacant"`
}

// Drifted reports whether the pass changed anything.
func (r Report) Drifted() bool {
	return r.MarkedOccupied > 0 || r.MarkedVacant > 0
}
