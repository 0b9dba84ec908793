package properties

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

var blockingStatuses = []enums.LeaseStatus{
	enums.LeaseStatusPendingSignature,
	enums.LeaseStatusActive,
	enums.LeaseStatusExpiringSoon,
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a properties repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, property *models.Property) (*models.Property, error) {
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).
		Preload("Units", "deleted_at IS NULL").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*PropertyList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("deleted_at IS NULL")

	if filters.LandlordID != nil {
		query = query.Where("landlord_id = ?", *filters.LandlordID)
	}
	if filters.City != "" {
		query = query.Where("city = ?", filters.City)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Property
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &PropertyList{Properties: rows}
	if len(rows) > limit {
		list.Properties = rows[:limit]
		last := list.Properties[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) CreateUnit(ctx context.Context, unit *models.Unit) (*models.Unit, error) {
	if err := r.db.WithContext(ctx).Create(unit).Error; err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *repository) FindUnitByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *repository) UpdateUnit(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) SoftDeleteUnit(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

func (r *repository) ListVacantUnits(ctx context.Context, landlordID *uuid.UUID) ([]models.Unit, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Joins("JOIN properties p ON p.id = units.property_id").
		Where("units.status = ? AND units.deleted_at IS NULL AND p.deleted_at IS NULL", enums.UnitStatusVacant)
	if landlordID != nil {
		query = query.Where("p.landlord_id = ?", *landlordID)
	}
	var rows []models.Unit
	err := query.Order("units.created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) CountBlockingLeases(ctx context.Context, unitID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("unit_id = ? AND status IN ? AND deleted_at IS NULL", unitID, blockingStatuses).
		Count(&count).Error
	return count, err
}

func (r *repository) CountBlockingLeasesForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Lease{}).
		Where("property_id = ? AND status IN ? AND deleted_at IS NULL", propertyID, blockingStatuses).
		Count(&count).Error
	return count, err
}
