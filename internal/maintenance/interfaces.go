package maintenance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

// Repository defines persistence operations for maintenance tickets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.MaintenanceTicket) (*models.MaintenanceTicket, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceTicket, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceTicket, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params pagination.Params, filters Filters) (*TicketList, error)
	FindUnitOwner(ctx context.Context, unitID uuid.UUID) (propertyID, landlordID uuid.UUID, err error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}
