package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// MaintenanceTicket tracks a repair request from intake through vendor work.
type MaintenanceTicket struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UnitID            uuid.UUID          `gorm:"column:unit_id;type:uuid;not null;index"`
	PropertyID        uuid.UUID          `gorm:"column:property_id;type:uuid;not null;index"`
	ReportedByID      uuid.UUID          `gorm:"column:reported_by_id;type:uuid;not null"`
	LandlordID        uuid.UUID          `gorm:"column:landlord_id;type:uuid;not null;index"`
	AssignedVendorID  *uuid.UUID         `gorm:"column:assigned_vendor_id;type:uuid;index"`
	Title             string             `gorm:"column:title;not null"`
	Description       string             `gorm:"column:description;not null"`
	Priority          int                `gorm:"column:priority;not null;default:3"`
	Status            enums.TicketStatus `gorm:"column:status;type:text;not null;default:'OPEN'"`
	EstimatedCost     *decimal.Decimal   `gorm:"column:estimated_cost;type:numeric(12,2)"`
	ActualCost        *decimal.Decimal   `gorm:"column:actual_cost;type:numeric(12,2)"`
	VendorNotes       *string            `gorm:"column:vendor_notes"`
	DeclineReason     *string            `gorm:"column:decline_reason"`
	AssignedAt        *time.Time         `gorm:"column:assigned_at"`
	VendorRespondedAt *time.Time         `gorm:"column:vendor_responded_at"`
	ScheduledFor      *time.Time         `gorm:"column:scheduled_for"`
	CompletedAt       *time.Time         `gorm:"column:completed_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
