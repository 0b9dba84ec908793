package occupancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SyncInput scopes a reconciliation pass. A nil PropertyID reconciles every
// unit.
type SyncInput struct {
	PropertyID *uuid.UUID
}

// SyncedEvent is emitted when a scoped reconciliation corrects drift.
type SyncedEvent struct {
	PropertyID uuid.UUID `json:"property_id"`
	Report     Report    `json:"report"`
}

// Service projects and reconciles unit occupancy from lease state.
type Service interface {
	ProjectUnit(ctx context.Context, unitID uuid.UUID) (enums.UnitStatus, error)
	Sync(ctx context.Context, input SyncInput) (*Report, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the occupancy service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("occupancy repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc, logg: logg}, nil
}

// ProjectUnit computes what a unit's status should be without writing
// anything. Occupancy follows lease status alone: an ACTIVE (or
// EXPIRING_SOON) lease occupies, everything else leaves the unit vacant.
// Manual holds win over lease-derived state.
func (s *service) ProjectUnit(ctx context.Context, unitID uuid.UUID) (enums.UnitStatus, error) {
	if unitID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}

	unit, err := s.repo.FindUnit(ctx, unitID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}
	if unit.Status == enums.UnitStatusMaintenance || unit.Status == enums.UnitStatusUnavailable {
		return unit.Status, nil
	}

	occupied, err := s.repo.HasActiveLease(ctx, unitID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unit leases")
	}
	if occupied {
		return enums.UnitStatusOccupied, nil
	}
	return enums.UnitStatusVacant, nil
}

// Sync reconciles stored unit statuses with the statuses the leases imply,
// then refreshes the per-property counters. Idempotent: a second pass over
// the same state changes nothing.
func (s *service) Sync(ctx context.Context, input SyncInput) (*Report, error) {
	var report Report
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		occupied, err := repo.MarkOccupied(ctx, input.PropertyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark occupied units")
		}
		vacant, err := repo.MarkVacant(ctx, input.PropertyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark vacant units")
		}
		report = Report{MarkedOccupied: occupied, MarkedVacant: vacant}

		if err := repo.RefreshPropertyCounts(ctx, input.PropertyID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh property counts")
		}

		if input.PropertyID != nil && report.Drifted() {
			event := outbox.DomainEvent{
				EventType:     enums.EventOccupancySynced,
				AggregateType: enums.AggregateProperty,
				AggregateID:   *input.PropertyID,
				Version:       1,
				Data: SyncedEvent{
					PropertyID: *input.PropertyID,
					Report:     report,
				},
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit occupancy synced")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil && report.Drifted() {
		fields := map[string]any{
			"marked_occupied": report.MarkedOccupied,
			"marked_vacant":   report.MarkedVacant,
		}
		s.logg.Warn(s.logg.WithFields(ctx, fields), "occupancy drift corrected")
	}
	return &report, nil
}
