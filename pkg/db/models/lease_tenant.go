package models

import (
	"time"

	"github.com/google/uuid"
)

// LeaseTenant joins a tenant user to a lease. IsPrimary marks the tenant who
// receives payment and renewal notices.
type LeaseTenant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LeaseID   uuid.UUID `gorm:"column:lease_id;type:uuid;not null;uniqueIndex:uq_lease_tenants_lease_user"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:uq_lease_tenants_lease_user"`
	IsPrimary bool      `gorm:"column:is_primary;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
