package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// Unit represents a single rentable unit within a property.
type Unit struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID uuid.UUID        `gorm:"column:property_id;type:uuid;not null;uniqueIndex:uq_units_property_label"`
	Label      string           `gorm:"column:label;not null;uniqueIndex:uq_units_property_label"`
	Bedrooms   int              `gorm:"column:bedrooms;not null;default:0"`
	Bathrooms  float64          `gorm:"column:bathrooms;type:numeric(3,1);not null;default:0"`
	SquareFeet *int             `gorm:"column:square_feet"`
	MarketRent decimal.Decimal  `gorm:"column:market_rent;type:numeric(12,2);not null;default:0"`
	Status     enums.UnitStatus `gorm:"column:status;type:text;not null;default:'VACANT'"`
	Leases     []Lease          `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
	DeletedAt  *time.Time       `gorm:"column:deleted_at;index"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
