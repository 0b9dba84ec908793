package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// Payment represents one rent obligation for a lease period. Cash payments
// travel through the dual-confirmation flow: the tenant claims, the landlord
// confirms or rejects.
type Payment struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LeaseID         uuid.UUID            `gorm:"column:lease_id;type:uuid;not null;index"`
	TenantID        uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;index"`
	LandlordID      uuid.UUID            `gorm:"column:landlord_id;type:uuid;not null;index"`
	Amount          decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	DueDate         time.Time            `gorm:"column:due_date;type:date;not null"`
	PeriodStart     time.Time            `gorm:"column:period_start;type:date;not null"`
	PeriodEnd       time.Time            `gorm:"column:period_end;type:date;not null"`
	Status          enums.PaymentStatus  `gorm:"column:status;type:text;not null;default:'PENDING'"`
	Method          *enums.PaymentMethod `gorm:"column:method;type:text"`
	ClaimedPaidDate *time.Time           `gorm:"column:claimed_paid_date;type:date"`
	ClaimedAt       *time.Time           `gorm:"column:claimed_at"`
	ClaimNotes      *string              `gorm:"column:claim_notes"`
	ConfirmedAt     *time.Time           `gorm:"column:confirmed_at"`
	ReceiptNumber   *string              `gorm:"column:receipt_number"`
	RejectionReason *string              `gorm:"column:rejection_reason"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
