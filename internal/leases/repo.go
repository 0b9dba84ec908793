package leases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

var blockingStatuses = []enums.LeaseStatus{
	enums.LeaseStatusPendingSignature,
	enums.LeaseStatusActive,
	enums.LeaseStatusExpiringSoon,
}

// activeStatuses are the lease statuses that occupy a unit. Narrower than
// blockingStatuses: a PENDING_SIGNATURE lease blocks the calendar but the
// tenant has not moved in.
var activeStatuses = []enums.LeaseStatus{
	enums.LeaseStatusActive,
	enums.LeaseStatusExpiringSoon,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a leases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lease *models.Lease) (*models.Lease, error) {
	if err := r.db.WithContext(ctx).Create(lease).Error; err != nil {
		return nil, err
	}
	return lease, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).
		Preload("Tenants").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&lease).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*LeaseList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Preload("Tenants").
		Where("leases.deleted_at IS NULL")

	if filters.PropertyID != nil {
		query = query.Where("leases.property_id = ?", *filters.PropertyID)
	}
	if filters.UnitID != nil {
		query = query.Where("leases.unit_id = ?", *filters.UnitID)
	}
	if filters.LandlordID != nil {
		query = query.Where("leases.landlord_id = ?", *filters.LandlordID)
	}
	if filters.Status != nil {
		query = query.Where("leases.status = ?", *filters.Status)
	}
	if filters.TenantID != nil {
		query = query.Joins("JOIN lease_tenants lt ON lt.lease_id = leases.id").
			Where("lt.tenant_id = ?", *filters.TenantID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(leases.created_at < ?) OR (leases.created_at = ? AND leases.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Lease
	err = query.
		Order("leases.created_at DESC").
		Order("leases.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &LeaseList{Leases: rows}
	if len(rows) > limit {
		list.Leases = rows[:limit]
		last := list.Leases[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) FindBlockingByUnit(ctx context.Context, unitID uuid.UUID, excludeLeaseID *uuid.UUID) ([]models.Lease, error) {
	query := r.db.WithContext(ctx).
		Where("unit_id = ? AND status IN ? AND deleted_at IS NULL", unitID, blockingStatuses)
	if excludeLeaseID != nil {
		query = query.Where("id <> ?", *excludeLeaseID)
	}
	var rows []models.Lease
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountOtherActive(ctx context.Context, unitID, excludeLeaseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("unit_id = ? AND status IN ? AND deleted_at IS NULL AND id <> ?",
			unitID, activeStatuses, excludeLeaseID).
		Count(&count).Error
	return count, err
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", at).Error
}

func (r *repository) CountPaymentsInStatuses(ctx context.Context, leaseID uuid.UUID, statuses []enums.PaymentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("lease_id = ? AND status IN ?", leaseID, statuses).
		Count(&count).Error
	return count, err
}

func (r *repository) FindExpiring(ctx context.Context, landlordID *uuid.UUID, from, to time.Time) ([]models.Lease, error) {
	query := r.db.WithContext(ctx).
		Preload("Tenants").
		Where("status IN ? AND deleted_at IS NULL AND end_date IS NOT NULL AND end_date >= ? AND end_date <= ?",
			[]enums.LeaseStatus{enums.LeaseStatusActive, enums.LeaseStatusExpiringSoon}, from, to)
	if landlordID != nil {
		query = query.Where("landlord_id = ?", *landlordID)
	}
	var rows []models.Lease
	err := query.Order("end_date ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]models.Lease, error) {
	var rows []models.Lease
	err := r.db.WithContext(ctx).
		Where("status = ? AND deleted_at IS NULL AND end_date IS NOT NULL AND end_date > ? AND end_date <= ?",
			enums.LeaseStatusActive, from, to).
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Lease, error) {
	var rows []models.Lease
	err := r.db.WithContext(ctx).
		Where("status IN ? AND deleted_at IS NULL AND end_date IS NOT NULL AND end_date <= ?",
			[]enums.LeaseStatus{enums.LeaseStatusActive, enums.LeaseStatusExpiringSoon}, cutoff).
		Find(&rows).Error
	return rows, err
}

// LockUnit loads the unit row under FOR UPDATE so concurrent lease writes on
// the same unit serialize. Must run inside a transaction.
func (r *repository) LockUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", unitID).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) FindPropertyLandlord(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	var property models.Property
	err := r.db.WithContext(ctx).
		Select("id", "landlord_id").
		Where("id = ? AND deleted_at IS NULL", propertyID).
		First(&property).Error
	if err != nil {
		return uuid.Nil, err
	}
	return property.LandlordID, nil
}

func (r *repository) CountActiveTenants(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ? AND role = ? AND is_active", ids, enums.ActorRoleTenant).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("id = ?", unitID).
		Update("status", status).Error
}
