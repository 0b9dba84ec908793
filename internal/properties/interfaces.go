package properties

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

// Repository defines persistence operations for properties and units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, property *models.Property) (*models.Property, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params, filters Filters) (*PropertyList, error)
	CreateUnit(ctx context.Context, unit *models.Unit) (*models.Unit, error)
	FindUnitByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	UpdateUnit(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SoftDeleteUnit(ctx context.Context, id uuid.UUID) error
	ListVacantUnits(ctx context.Context, landlordID *uuid.UUID) ([]models.Unit, error)
	CountBlockingLeases(ctx context.Context, unitID uuid.UUID) (int64, error)
	CountBlockingLeasesForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error)
}
