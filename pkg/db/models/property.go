package models

import (
	"time"

	"github.com/google/uuid"
)

// Property represents a building or complex owned by a landlord.
type Property struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LandlordID    uuid.UUID  `gorm:"column:landlord_id;type:uuid;not null;index"`
	Name          string     `gorm:"column:name;not null"`
	AddressLine1  string     `gorm:"column:address_line1;not null"`
	AddressLine2  *string    `gorm:"column:address_line2"`
	City          string     `gorm:"column:city;not null"`
	Region        string     `gorm:"column:region;not null"`
	PostalCode    string     `gorm:"column:postal_code;not null"`
	Country       string     `gorm:"column:country;not null;default:'US'"`
	OccupiedCount int        `gorm:"column:occupied_count;not null;default:0"`
	VacantCount   int        `gorm:"column:vacant_count;not null;default:0"`
	Units         []Unit     `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	DeletedAt     *time.Time `gorm:"column:deleted_at;index"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
