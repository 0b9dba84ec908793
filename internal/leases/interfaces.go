package leases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

// Repository defines persistence operations for leases and their units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lease *models.Lease) (*models.Lease, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params pagination.Params, filters Filters) (*LeaseList, error)
	FindBlockingByUnit(ctx context.Context, unitID uuid.UUID, excludeLeaseID *uuid.UUID) ([]models.Lease, error)
	CountOtherActive(ctx context.Context, unitID, excludeLeaseID uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	CountPaymentsInStatuses(ctx context.Context, leaseID uuid.UUID, statuses []enums.PaymentStatus) (int64, error)
	FindExpiring(ctx context.Context, landlordID *uuid.UUID, from, to time.Time) ([]models.Lease, error)
	FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]models.Lease, error)
	FindEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Lease, error)
	LockUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error)
	FindPropertyLandlord(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error)
	CountActiveTenants(ctx context.Context, ids []uuid.UUID) (int64, error)
	UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error
}
