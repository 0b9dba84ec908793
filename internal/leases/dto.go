package leases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// TenantRef names one tenant on a lease being created.
type TenantRef struct {
	TenantID  uuid.UUID
	IsPrimary bool
}

// CreateInput carries everything needed to create a lease.
type CreateInput struct {
	UnitID        uuid.UUID
	Type          enums.LeaseType
	Status        enums.LeaseStatus
	StartDate     time.Time
	EndDate       *time.Time
	RentAmount    decimal.Decimal
	DepositAmount decimal.Decimal
	RentDueDay    int
	LateFeeAmount *decimal.Decimal
	LateFeeDays   *int
	Terms         *string
	Tenants       []TenantRef
	ActorUserID   uuid.UUID
	ActorRole     enums.ActorRole
}

// UpdateInput carries the mutable lease fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	LeaseID       uuid.UUID
	RentAmount    *decimal.Decimal
	DepositAmount *decimal.Decimal
	RentDueDay    *int
	LateFeeAmount *decimal.Decimal
	LateFeeDays   *int
	Terms         *string
	Notes         *string
	EndDate       *time.Time
	ClearEndDate  bool
	ActorUserID   uuid.UUID
	ActorRole     enums.ActorRole
}

// TransitionInput moves a lease to a new lifecycle status. TerminationDate is
// only read when the target is TERMINATED; it becomes the lease's end date.
type TransitionInput struct {
	LeaseID         uuid.UUID
	Target          enums.LeaseStatus
	Note            *string
	TerminationDate *time.Time
	ActorUserID     uuid.UUID
	ActorRole       enums.ActorRole
}

// TerminateInput ends a lease before its natural expiry.
type TerminateInput struct {
	LeaseID         uuid.UUID
	TerminationDate time.Time
	Reason          string
	ActorUserID     uuid.UUID
	ActorRole       enums.ActorRole
}

// RenewInput creates a successor lease and retires the current one.
type RenewInput struct {
	LeaseID     uuid.UUID
	StartDate   time.Time
	EndDate     *time.Time
	RentAmount  *decimal.Decimal
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// DeleteInput removes a draft lease that never took effect.
type DeleteInput struct {
	LeaseID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// ExpiringInput scopes the expiring-lease report.
type ExpiringInput struct {
	DaysAhead   int
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// Filters narrow lease listings.
type Filters struct {
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	LandlordID *uuid.UUID
	TenantID   *uuid.UUID
	Status     *enums.LeaseStatus
}

// LeaseList is one page of leases plus the cursor for the next page.
type LeaseList struct {
	Leases     []models.Lease
	NextCursor string
}
