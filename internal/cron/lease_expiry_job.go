package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/internal/leases"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/outbox"
)

const defaultExpiringSoonDays = 30

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type leaseReader interface {
	FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]models.Lease, error)
	FindEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Lease, error)
}

type transactionalLeaseRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountOtherActive(ctx context.Context, unitID, excludeLeaseID uuid.UUID) (int64, error)
	UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error
}

type leaseRepoFactory func(tx *gorm.DB) transactionalLeaseRepo

func defaultLeaseRepo(tx *gorm.DB) transactionalLeaseRepo {
	return leases.NewRepository(tx)
}

// LeaseExpiredEvent describes the payload when a lease reaches its end date.
type LeaseExpiredEvent struct {
	LeaseID    uuid.UUID `json:"lease_id"`
	UnitID     uuid.UUID `json:"unit_id"`
	PropertyID uuid.UUID `json:"property_id"`
	EndDate    time.Time `json:"end_date"`
}

// LeaseExpiryJobParams configure the lease lifecycle sweep.
type LeaseExpiryJobParams struct {
	Logger           *logger.Logger
	DB               txRunner
	LeaseReader      leaseReader
	Outbox           outboxEmitter
	Audit            auditRecorder
	RepoFactory      leaseRepoFactory
	ExpiringSoonDays int
}

// NewLeaseExpiryJob builds the cron job that flags leases approaching their
// end date and expires leases past it.
func NewLeaseExpiryJob(params LeaseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.LeaseReader == nil {
		return nil, fmt.Errorf("lease reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = defaultLeaseRepo
	}
	windowDays := params.ExpiringSoonDays
	if windowDays <= 0 {
		windowDays = defaultExpiringSoonDays
	}
	return &leaseExpiryJob{
		logg:        params.Logger,
		db:          params.DB,
		leaseReader: params.LeaseReader,
		outbox:      params.Outbox,
		audit:       params.Audit,
		repoFactory: repoFactory,
		windowDays:  windowDays,
		now:         time.Now,
	}, nil
}

type leaseExpiryJob struct {
	logg        *logger.Logger
	db          txRunner
	leaseReader leaseReader
	outbox      outboxEmitter
	audit       auditRecorder
	repoFactory leaseRepoFactory
	windowDays  int
	now         func() time.Time
}

func (j *leaseExpiryJob) Name() string { return "lease-expiry" }

func (j *leaseExpiryJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.flagExpiringSoon(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.expireEnded(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *leaseExpiryJob) flagExpiringSoon(ctx context.Context) error {
	now := j.now().UTC()
	window := now.Add(time.Duration(j.windowDays) * 24 * time.Hour)
	candidates, err := j.leaseReader.FindActiveEndingBetween(ctx, now, window)
	if err != nil {
		return fmt.Errorf("query leases ending soon: %w", err)
	}
	count := 0
	for _, lease := range candidates {
		if err := j.flagLease(ctx, lease.ID); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "expiring-soon sweep complete")
	return nil
}

func (j *leaseExpiryJob) flagLease(ctx context.Context, leaseID uuid.UUID) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindByID(ctx, leaseID)
		if err != nil {
			return err
		}
		if current.Status != enums.LeaseStatusActive {
			return nil
		}
		if err := repo.Update(ctx, leaseID, map[string]any{
			"status": enums.LeaseStatusExpiringSoon,
		}); err != nil {
			return err
		}
		return j.audit.Record(ctx, tx, audit.Entry{
			Action:     enums.AuditActionPropertyUpdated,
			EntityType: "lease",
			EntityID:   leaseID,
			ActorRole:  enums.ActorRoleSystem,
			Detail: map[string]any{
				"status_change": fmt.Sprintf("%s → %s", enums.LeaseStatusActive, enums.LeaseStatusExpiringSoon),
			},
		})
	})
}

func (j *leaseExpiryJob) expireEnded(ctx context.Context) error {
	now := j.now().UTC()
	ended, err := j.leaseReader.FindEndedBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("query ended leases: %w", err)
	}
	count := 0
	for _, lease := range ended {
		if err := j.expireLease(ctx, lease.ID); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "lease expiration sweep complete")
	return nil
}

func (j *leaseExpiryJob) expireLease(ctx context.Context, leaseID uuid.UUID) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindByID(ctx, leaseID)
		if err != nil {
			return err
		}
		if current.Status != enums.LeaseStatusActive && current.Status != enums.LeaseStatusExpiringSoon {
			return nil
		}
		if current.EndDate == nil {
			return nil
		}
		if err := repo.Update(ctx, leaseID, map[string]any{
			"status": enums.LeaseStatusExpired,
		}); err != nil {
			return err
		}

		// Release the unit only when no other active lease still holds it.
		others, err := repo.CountOtherActive(ctx, current.UnitID, leaseID)
		if err != nil {
			return err
		}
		if others == 0 {
			if err := repo.UpdateUnitStatus(ctx, current.UnitID, enums.UnitStatusVacant); err != nil {
				return err
			}
		}

		if err := j.audit.Record(ctx, tx, audit.Entry{
			Action:     enums.AuditActionPropertyUpdated,
			EntityType: "lease",
			EntityID:   leaseID,
			ActorRole:  enums.ActorRoleSystem,
			Detail: map[string]any{
				"status_change": fmt.Sprintf("%s → %s", current.Status, enums.LeaseStatusExpired),
			},
		}); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLeaseExpired,
			AggregateType: enums.AggregateLease,
			AggregateID:   leaseID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: LeaseExpiredEvent{
				LeaseID:    leaseID,
				UnitID:     current.UnitID,
				PropertyID: current.PropertyID,
				EndDate:    *current.EndDate,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
