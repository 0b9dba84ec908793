package properties

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	dbpkg "github.com/leaseflow/leaseflow-backend/pkg/db"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines property and unit inventory operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Property, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*PropertyList, error)
	Update(ctx context.Context, input UpdateInput) (*models.Property, error)
	Delete(ctx context.Context, input DeleteInput) error
	AddUnit(ctx context.Context, input AddUnitInput) (*models.Unit, error)
	UpdateUnit(ctx context.Context, input UpdateUnitInput) (*models.Unit, error)
	ListVacantUnits(ctx context.Context, landlordID *uuid.UUID) ([]models.Unit, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	audit audit.Service
}

// NewService builds the properties service.
func NewService(repo Repository, tx txRunner, auditSvc audit.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("properties repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{repo: repo, tx: tx, audit: auditSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Property, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorRole != enums.ActorRoleLandlord && input.ActorRole != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only landlords can create properties")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property name required")
	}
	if strings.TrimSpace(input.AddressLine1) == "" || strings.TrimSpace(input.City) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property address required")
	}
	seenLabels := map[string]bool{}
	for _, unit := range input.Units {
		label := strings.TrimSpace(unit.Label)
		if label == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit label required")
		}
		if seenLabels[label] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate unit label "+label)
		}
		seenLabels[label] = true
		if unit.MarketRent.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "market rent cannot be negative")
		}
	}

	country := input.Country
	if country == "" {
		country = "US"
	}
	property := &models.Property{
		LandlordID:   input.ActorUserID,
		Name:         input.Name,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		Region:       input.Region,
		PostalCode:   input.PostalCode,
		Country:      country,
		VacantCount:  len(input.Units),
	}
	for _, unit := range input.Units {
		property.Units = append(property.Units, models.Unit{
			Label:      strings.TrimSpace(unit.Label),
			Bedrooms:   unit.Bedrooms,
			Bathrooms:  unit.Bathrooms,
			SquareFeet: unit.SquareFeet,
			MarketRent: unit.MarketRent,
			Status:     enums.UnitStatusVacant,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, property); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_units_property_label") {
				return pkgerrors.New(pkgerrors.CodeConflict, "duplicate unit label")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create property")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id required")
	}
	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	return property, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*PropertyList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list properties")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Property, error) {
	if input.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	updates := map[string]any{}
	changed := map[string]any{}
	apply := func(column string, value *string) {
		if value != nil {
			updates[column] = *value
			changed[column] = *value
		}
	}
	apply("name", input.Name)
	apply("address_line1", input.AddressLine1)
	apply("address_line2", input.AddressLine2)
	apply("city", input.City)
	apply("region", input.Region)
	apply("postal_code", input.PostalCode)

	var updated *models.Property
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		property, err := repo.FindByID(ctx, input.PropertyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		if err := authorizeOwner(property, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if len(updates) == 0 {
			updated = property
			return nil
		}
		if err := repo.Update(ctx, property.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update property")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionPropertyUpdated,
			EntityType:  "property",
			EntityID:    property.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail:      changed,
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, property.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload property")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if input.PropertyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "property id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		property, err := repo.FindByID(ctx, input.PropertyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		if err := authorizeOwner(property, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}

		blocking, err := repo.CountBlockingLeasesForProperty(ctx, property.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count property leases")
		}
		if blocking > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "property has active leases")
		}

		if err := repo.SoftDelete(ctx, property.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete property")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionPropertyDeleted,
			EntityType:  "property",
			EntityID:    property.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail:      map[string]any{"name": property.Name},
		}
		return s.audit.Record(ctx, tx, entry)
	})
}

func (s *service) AddUnit(ctx context.Context, input AddUnitInput) (*models.Unit, error) {
	if input.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id required")
	}
	if strings.TrimSpace(input.Unit.Label) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit label required")
	}
	if input.Unit.MarketRent.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "market rent cannot be negative")
	}

	var created *models.Unit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		property, err := repo.FindByID(ctx, input.PropertyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		if err := authorizeOwner(property, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}

		unit := &models.Unit{
			PropertyID: property.ID,
			Label:      strings.TrimSpace(input.Unit.Label),
			Bedrooms:   input.Unit.Bedrooms,
			Bathrooms:  input.Unit.Bathrooms,
			SquareFeet: input.Unit.SquareFeet,
			MarketRent: input.Unit.MarketRent,
			Status:     enums.UnitStatusVacant,
		}
		if _, err := repo.CreateUnit(ctx, unit); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_units_property_label") {
				return pkgerrors.New(pkgerrors.CodeConflict, "unit label already exists in property")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create unit")
		}
		created = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdateUnit(ctx context.Context, input UpdateUnitInput) (*models.Unit, error) {
	if input.UnitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit status")
		}
		// VACANT and OCCUPIED are derived from leases; only hold statuses can
		// be applied by hand.
		if *input.Status != enums.UnitStatusMaintenance && *input.Status != enums.UnitStatusUnavailable {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "only MAINTENANCE or UNAVAILABLE can be set manually")
		}
	}
	if input.MarketRent != nil && input.MarketRent.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "market rent cannot be negative")
	}

	var updated *models.Unit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		unit, err := repo.FindUnitByID(ctx, input.UnitID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
		}
		property, err := repo.FindByID(ctx, unit.PropertyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		if err := authorizeOwner(property, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}

		updates := map[string]any{}
		if input.MarketRent != nil {
			updates["market_rent"] = *input.MarketRent
		}
		if input.SquareFeet != nil {
			updates["square_feet"] = *input.SquareFeet
		}
		if input.Status != nil {
			blocking, err := repo.CountBlockingLeases(ctx, unit.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unit leases")
			}
			if blocking > 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "unit has an active lease")
			}
			updates["status"] = *input.Status
		}
		if len(updates) == 0 {
			updated = unit
			return nil
		}
		if err := repo.UpdateUnit(ctx, unit.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update unit")
		}
		updated, err = repo.FindUnitByID(ctx, unit.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload unit")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListVacantUnits(ctx context.Context, landlordID *uuid.UUID) ([]models.Unit, error) {
	units, err := s.repo.ListVacantUnits(ctx, landlordID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vacant units")
	}
	return units, nil
}

func authorizeOwner(property *models.Property, actorUserID uuid.UUID, role enums.ActorRole) error {
	if role == enums.ActorRoleAdmin {
		return nil
	}
	if property.LandlordID != actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "property does not belong to landlord")
	}
	return nil
}
