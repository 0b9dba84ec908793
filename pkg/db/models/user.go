package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// User represents any authenticated actor: landlord, tenant, vendor, or admin.
type User struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string          `gorm:"column:email;not null;uniqueIndex"`
	FullName  string          `gorm:"column:full_name;not null"`
	Phone     *string         `gorm:"column:phone"`
	Role      enums.ActorRole `gorm:"column:role;type:text;not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
