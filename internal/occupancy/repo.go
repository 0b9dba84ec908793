package occupancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an occupancy repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", unitID).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// HasActiveLease reports whether any non-deleted ACTIVE lease sits on the
// unit. Lease status alone drives occupancy; a signed-but-unstarted
// (PENDING_SIGNATURE) lease blocks the calendar without occupying the unit.
func (r *repository) HasActiveLease(ctx context.Context, unitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("unit_id = ? AND deleted_at IS NULL", unitID).
		Where("status IN ?", occupyingStatuses()).
		Count(&count).Error
	return count > 0, err
}

// MarkOccupied flips VACANT units that have an ACTIVE lease. Units held in
// MAINTENANCE or UNAVAILABLE are never touched.
func (r *repository) MarkOccupied(ctx context.Context, propertyID *uuid.UUID) (int64, error) {
	sql := `
UPDATE units SET status = ?, updated_at = ?
WHERE status = ?
  AND deleted_at IS NULL
  AND EXISTS (
    SELECT 1 FROM leases l
    WHERE l.unit_id = units.id
      AND l.deleted_at IS NULL
      AND l.status IN (?, ?)
  )`
	args := []any{
		enums.UnitStatusOccupied, time.Now(),
		enums.UnitStatusVacant,
		enums.LeaseStatusActive, enums.LeaseStatusExpiringSoon,
	}
	if propertyID != nil {
		sql += " AND units.property_id = ?"
		args = append(args, *propertyID)
	}
	result := r.db.WithContext(ctx).Exec(sql, args...)
	return result.RowsAffected, result.Error
}

// MarkVacant flips OCCUPIED units with no ACTIVE lease left.
func (r *repository) MarkVacant(ctx context.Context, propertyID *uuid.UUID) (int64, error) {
	sql := `
UPDATE units SET status = ?, updated_at = ?
WHERE status = ?
  AND deleted_at IS NULL
  AND NOT EXISTS (
    SELECT 1 FROM leases l
    WHERE l.unit_id = units.id
      AND l.deleted_at IS NULL
      AND l.status IN (?, ?)
  )`
	args := []any{
		enums.UnitStatusVacant, time.Now(),
		enums.UnitStatusOccupied,
		enums.LeaseStatusActive, enums.LeaseStatusExpiringSoon,
	}
	if propertyID != nil {
		sql += " AND units.property_id = ?"
		args = append(args, *propertyID)
	}
	result := r.db.WithContext(ctx).Exec(sql, args...)
	return result.RowsAffected, result.Error
}

// RefreshPropertyCounts recomputes the denormalized occupied/vacant counters
// from the unit rows.
func (r *repository) RefreshPropertyCounts(ctx context.Context, propertyID *uuid.UUID) error {
	sql := `
UPDATE properties SET
  occupied_count = (
    SELECT COUNT(*) FROM units u
    WHERE u.property_id = properties.id AND u.deleted_at IS NULL AND u.status = ?
  ),
  vacant_count = (
    SELECT COUNT(*) FROM units u
    WHERE u.property_id = properties.id AND u.deleted_at IS NULL AND u.status = ?
  )
WHERE properties.deleted_at IS NULL`
	args := []any{enums.UnitStatusOccupied, enums.UnitStatusVacant}
	if propertyID != nil {
		sql += " AND properties.id = ?"
		args = append(args, *propertyID)
	}
	return r.db.WithContext(ctx).Exec(sql, args...).Error
}

// occupyingStatuses are the lease statuses that imply a unit is occupied.
// EXPIRING_SOON is an ACTIVE lease flagged near its end date, so it still
// occupies.
func occupyingStatuses() []enums.LeaseStatus {
	return []enums.LeaseStatus{
		enums.LeaseStatusActive,
		enums.LeaseStatusExpiringSoon,
	}
}
