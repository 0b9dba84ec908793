package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// CreateInput records one rent obligation for a lease period.
type CreateInput struct {
	LeaseID     uuid.UUID
	Amount      *decimal.Decimal
	DueDate     time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// ClaimInput is the tenant's half of the cash flow: "I handed over the cash".
// ReceiptNumber carries a paper receipt the landlord already wrote; when
// absent, confirmation mints one.
type ClaimInput struct {
	PaymentID       uuid.UUID
	ClaimedPaidDate time.Time
	ReceiptNumber   *string
	Notes           *string
	ActorUserID     uuid.UUID
	ActorRole       enums.ActorRole
}

// ConfirmInput is the landlord's half: acknowledge receipt of the cash.
type ConfirmInput struct {
	PaymentID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// RejectInput disputes a cash claim and returns the payment to PENDING.
type RejectInput struct {
	PaymentID   uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// Filters narrow payment listings.
type Filters struct {
	LeaseID    *uuid.UUID
	TenantID   *uuid.UUID
	LandlordID *uuid.UUID
	Status     *enums.PaymentStatus
}

// PaymentList is one page of payments plus the cursor for the next page.
type PaymentList struct {
	Payments   []models.Payment
	NextCursor string
}
