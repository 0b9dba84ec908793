package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// Lease represents a rental agreement binding one unit for a date interval.
// EndDate is nil for open-ended month-to-month agreements.
type Lease struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UnitID          uuid.UUID         `gorm:"column:unit_id;type:uuid;not null;index"`
	PropertyID      uuid.UUID         `gorm:"column:property_id;type:uuid;not null;index"`
	LandlordID      uuid.UUID         `gorm:"column:landlord_id;type:uuid;not null;index"`
	Type            enums.LeaseType   `gorm:"column:type;type:text;not null"`
	Status          enums.LeaseStatus `gorm:"column:status;type:text;not null;default:'DRAFT'"`
	StartDate       time.Time         `gorm:"column:start_date;type:date;not null"`
	EndDate         *time.Time        `gorm:"column:end_date;type:date"`
	RentAmount      decimal.Decimal   `gorm:"column:rent_amount;type:numeric(12,2);not null"`
	DepositAmount   decimal.Decimal   `gorm:"column:deposit_amount;type:numeric(12,2);not null;default:0"`
	RentDueDay      int               `gorm:"column:rent_due_day;not null;default:1"`
	LateFeeAmount   *decimal.Decimal  `gorm:"column:late_fee_amount;type:numeric(12,2)"`
	LateFeeDays     int               `gorm:"column:late_fee_days;not null;default:5"`
	Terms           *string           `gorm:"column:terms"`
	Notes           *string           `gorm:"column:notes"`
	RenewedFromID   *uuid.UUID        `gorm:"column:renewed_from_id;type:uuid"`
	TerminatedAt    *time.Time        `gorm:"column:terminated_at"`
	TerminationNote *string           `gorm:"column:termination_note"`
	Tenants         []LeaseTenant     `gorm:"foreignKey:LeaseID;constraint:OnDelete:CASCADE"`
	DeletedAt       *time.Time        `gorm:"column:deleted_at;index"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
