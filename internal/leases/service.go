package leases

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/outbox"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// leaseTransitions is the full lifecycle table. A lease may only move to a
// status listed for its current one.
var leaseTransitions = map[enums.LeaseStatus][]enums.LeaseStatus{
	enums.LeaseStatusDraft: {
		enums.LeaseStatusPendingSignature,
		enums.LeaseStatusActive,
	},
	enums.LeaseStatusPendingSignature: {
		enums.LeaseStatusActive,
		enums.LeaseStatusTerminated,
	},
	enums.LeaseStatusActive: {
		enums.LeaseStatusExpiringSoon,
		enums.LeaseStatusExpired,
		enums.LeaseStatusTerminated,
		enums.LeaseStatusRenewed,
	},
	enums.LeaseStatusExpiringSoon: {
		enums.LeaseStatusActive,
		enums.LeaseStatusExpired,
		enums.LeaseStatusTerminated,
		enums.LeaseStatusRenewed,
	},
}

func canTransition(from, to enums.LeaseStatus) bool {
	for _, allowed := range leaseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LeaseActivatedEvent is emitted when a lease becomes active.
type LeaseActivatedEvent struct {
	LeaseID    uuid.UUID  `json:"lease_id"`
	UnitID     uuid.UUID  `json:"unit_id"`
	PropertyID uuid.UUID  `json:"property_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// LeaseTerminatedEvent is emitted when a lease ends before its natural expiry.
type LeaseTerminatedEvent struct {
	LeaseID    uuid.UUID `json:"lease_id"`
	UnitID     uuid.UUID `json:"unit_id"`
	PropertyID uuid.UUID `json:"property_id"`
	Note       *string   `json:"note,omitempty"`
}

// Service defines lease lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Lease, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*LeaseList, error)
	Update(ctx context.Context, input UpdateInput) (*models.Lease, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Lease, error)
	Terminate(ctx context.Context, input TerminateInput) (*models.Lease, error)
	Renew(ctx context.Context, input RenewInput) (*models.Lease, error)
	Delete(ctx context.Context, input DeleteInput) error
	Expiring(ctx context.Context, input ExpiringInput) ([]models.Lease, error)
}

// defaultExpiringDays is the lookahead window when the caller does not set one.
const defaultExpiringDays = 90

// deleteBlockingStatuses are payment states that pin a draft lease in place.
var deleteBlockingStatuses = []enums.PaymentStatus{
	enums.PaymentStatusPending,
	enums.PaymentStatusProcessing,
	enums.PaymentStatusCompleted,
}

type service struct {
	repo   Repository
	tx     txRunner
	audit  audit.Service
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a lease service with the required dependencies.
func NewService(repo Repository, tx txRunner, auditSvc audit.Service, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("leases repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		audit:  auditSvc,
		outbox: outboxSvc,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Lease, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	var created *models.Lease
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Serializes concurrent lease writes for the unit; the overlap check
		// below is only sound while this lock is held.
		unit, err := repo.LockUnit(ctx, input.UnitID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock unit")
		}

		landlordID, err := repo.FindPropertyLandlord(ctx, unit.PropertyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		if input.ActorRole != enums.ActorRoleAdmin && input.ActorUserID != landlordID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "unit does not belong to landlord")
		}

		tenantIDs := make([]uuid.UUID, 0, len(input.Tenants))
		seen := map[uuid.UUID]bool{}
		for _, tenant := range input.Tenants {
			if seen[tenant.TenantID] {
				return pkgerrors.New(pkgerrors.CodeValidation, "duplicate tenant id")
			}
			seen[tenant.TenantID] = true
			tenantIDs = append(tenantIDs, tenant.TenantID)
		}
		count, err := repo.CountActiveTenants(ctx, tenantIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve tenants")
		}
		if count != int64(len(tenantIDs)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "every tenant id must resolve to an active tenant user")
		}

		if input.Status.Blocking() {
			if err := s.ensureNoOverlap(ctx, repo, input.UnitID, Interval{Start: input.StartDate, End: input.EndDate}, nil); err != nil {
				return err
			}
		}

		lateFeeDays := 5
		if input.LateFeeDays != nil {
			lateFeeDays = *input.LateFeeDays
		}
		lease := &models.Lease{
			UnitID:        input.UnitID,
			PropertyID:    unit.PropertyID,
			LandlordID:    landlordID,
			Type:          input.Type,
			Status:        input.Status,
			StartDate:     input.StartDate,
			EndDate:       input.EndDate,
			RentAmount:    input.RentAmount,
			DepositAmount: input.DepositAmount,
			RentDueDay:    input.RentDueDay,
			LateFeeAmount: input.LateFeeAmount,
			LateFeeDays:   lateFeeDays,
			Terms:         input.Terms,
		}
		for _, tenant := range input.Tenants {
			lease.Tenants = append(lease.Tenants, models.LeaseTenant{
				TenantID:  tenant.TenantID,
				IsPrimary: tenant.IsPrimary,
			})
		}
		if _, err := repo.Create(ctx, lease); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lease")
		}

		if lease.Status == enums.LeaseStatusActive {
			if err := s.occupyUnit(ctx, repo, lease); err != nil {
				return err
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventLeaseActivated,
				AggregateType: enums.AggregateLease,
				AggregateID:   lease.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, input.ActorRole),
				Data: LeaseActivatedEvent{
					LeaseID:    lease.ID,
					UnitID:     lease.UnitID,
					PropertyID: lease.PropertyID,
					StartDate:  lease.StartDate,
					EndDate:    lease.EndDate,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit lease activated")
			}
		}

		entry := audit.Entry{
			Action:      enums.AuditActionLeaseCreated,
			EntityType:  "lease",
			EntityID:    lease.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail: map[string]any{
				"unit_id": lease.UnitID,
				"status":  lease.Status,
				"start":   lease.StartDate.Format("2006-01-02"),
			},
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		created = lease
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease id required")
	}
	lease, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
	}
	return lease, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*LeaseList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list leases")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Lease, error) {
	if input.LeaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.RentAmount != nil && !input.RentAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rent amount must be positive")
	}
	if input.RentDueDay != nil && (*input.RentDueDay < 1 || *input.RentDueDay > 31) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rent due day must be between 1 and 31")
	}
	if input.LateFeeAmount != nil && input.LateFeeAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "late fee amount cannot be negative")
	}
	if input.LateFeeDays != nil && *input.LateFeeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "late fee days cannot be negative")
	}
	if input.EndDate != nil && input.ClearEndDate {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot both set and clear end date")
	}

	var updated *models.Lease
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lease, err := repo.FindByID(ctx, input.LeaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
		}
		if err := authorizeLandlord(lease, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if lease.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lease can no longer be edited")
		}

		updates := map[string]any{}
		if input.RentAmount != nil {
			updates["rent_amount"] = *input.RentAmount
		}
		if input.DepositAmount != nil {
			updates["deposit_amount"] = *input.DepositAmount
		}
		if input.RentDueDay != nil {
			updates["rent_due_day"] = *input.RentDueDay
		}
		if input.LateFeeAmount != nil {
			updates["late_fee_amount"] = *input.LateFeeAmount
		}
		if input.LateFeeDays != nil {
			updates["late_fee_days"] = *input.LateFeeDays
		}
		if input.Terms != nil {
			updates["terms"] = *input.Terms
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}

		datesChanged := input.EndDate != nil || input.ClearEndDate
		if datesChanged {
			newEnd := input.EndDate
			if input.ClearEndDate {
				newEnd = nil
			}
			if newEnd != nil && !newEnd.After(lease.StartDate) {
				return pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
			}
			if lease.Type == enums.LeaseTypeFixedTerm && newEnd == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "fixed-term lease requires an end date")
			}
			if lease.Status.Blocking() {
				if _, err := repo.LockUnit(ctx, lease.UnitID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock unit")
				}
				interval := Interval{Start: lease.StartDate, End: newEnd}
				if err := s.ensureNoOverlap(ctx, repo, lease.UnitID, interval, &lease.ID); err != nil {
					return err
				}
			}
			updates["end_date"] = newEnd
		}

		if len(updates) == 0 {
			updated = lease
			return nil
		}
		if err := repo.Update(ctx, lease.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lease")
		}

		fields := make([]string, 0, len(updates))
		for field := range updates {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		entry := audit.Entry{
			Action:      enums.AuditActionPropertyUpdated,
			EntityType:  "lease",
			EntityID:    lease.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail:      map[string]any{"fields": fields},
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, lease.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload lease")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Lease, error) {
	if input.LeaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid lease status")
	}
	if input.Target == enums.LeaseStatusRenewed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "renewal creates a successor lease; use the renew operation")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Lease
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lease, err := repo.FindByID(ctx, input.LeaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
		}
		if err := authorizeLandlord(lease, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if lease.Status == input.Target {
			result = lease
			return nil
		}
		if !canTransition(lease.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("lease cannot move from %s to %s", lease.Status, input.Target))
		}

		result, err = s.applyTransition(ctx, tx, repo, lease, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, lease *models.Lease, input TransitionInput) (*models.Lease, error) {
	updates := map[string]any{"status": input.Target}

	switch input.Target {
	case enums.LeaseStatusActive:
		if _, err := repo.LockUnit(ctx, lease.UnitID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock unit")
		}
		// Reactivation from EXPIRING_SOON skips the overlap check; the lease
		// already holds its slot.
		if !lease.Status.Blocking() {
			interval := Interval{Start: lease.StartDate, End: lease.EndDate}
			if err := s.ensureNoOverlap(ctx, repo, lease.UnitID, interval, &lease.ID); err != nil {
				return nil, err
			}
		}

	case enums.LeaseStatusTerminated:
		now := s.now()
		updates["terminated_at"] = now
		if input.Note != nil {
			updates["termination_note"] = *input.Note
		}
		if input.TerminationDate != nil {
			updates["end_date"] = *input.TerminationDate
			lease.EndDate = input.TerminationDate
		}

	case enums.LeaseStatusExpired, enums.LeaseStatusExpiringSoon:
		// status change only
	}

	if err := repo.Update(ctx, lease.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update lease status")
	}
	previous := lease.Status
	lease.Status = input.Target

	switch input.Target {
	case enums.LeaseStatusActive:
		if err := s.occupyUnit(ctx, repo, lease); err != nil {
			return nil, err
		}
		if previous != enums.LeaseStatusExpiringSoon {
			event := outbox.DomainEvent{
				EventType:     enums.EventLeaseActivated,
				AggregateType: enums.AggregateLease,
				AggregateID:   lease.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, input.ActorRole),
				Data: LeaseActivatedEvent{
					LeaseID:    lease.ID,
					UnitID:     lease.UnitID,
					PropertyID: lease.PropertyID,
					StartDate:  lease.StartDate,
					EndDate:    lease.EndDate,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit lease activated")
			}
		}

	case enums.LeaseStatusTerminated, enums.LeaseStatusExpired:
		if err := s.releaseUnit(ctx, repo, lease); err != nil {
			return nil, err
		}
		eventType := enums.EventLeaseTerminated
		if input.Target == enums.LeaseStatusExpired {
			eventType = enums.EventLeaseExpired
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateLease,
			AggregateID:   lease.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: LeaseTerminatedEvent{
				LeaseID:    lease.ID,
				UnitID:     lease.UnitID,
				PropertyID: lease.PropertyID,
				Note:       input.Note,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit lease ended")
		}
	}

	entry := audit.Entry{
		Action:      enums.AuditActionPropertyUpdated,
		EntityType:  "lease",
		EntityID:    lease.ID,
		ActorUserID: input.ActorUserID,
		ActorRole:   input.ActorRole,
		Detail: map[string]any{
			"status_change": fmt.Sprintf("%s → %s", previous, input.Target),
		},
	}
	if input.Target == enums.LeaseStatusTerminated {
		entry.Action = enums.AuditActionLeaseTerminated
		entry.Detail = map[string]any{
			"previous_status": previous,
			"note":            input.Note,
		}
	}
	if err := s.audit.Record(ctx, tx, entry); err != nil {
		return nil, err
	}

	return lease, nil
}

func (s *service) Terminate(ctx context.Context, input TerminateInput) (*models.Lease, error) {
	reason := strings.TrimSpace(input.Reason)
	if len(reason) < 10 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "termination reason must be at least 10 characters")
	}
	if input.TerminationDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "termination date required")
	}
	return s.Transition(ctx, TransitionInput{
		LeaseID:         input.LeaseID,
		Target:          enums.LeaseStatusTerminated,
		Note:            &reason,
		TerminationDate: &input.TerminationDate,
		ActorUserID:     input.ActorUserID,
		ActorRole:       input.ActorRole,
	})
}

func (s *service) Renew(ctx context.Context, input RenewInput) (*models.Lease, error) {
	if input.LeaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.RentAmount != nil && !input.RentAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rent amount must be positive")
	}

	var successor *models.Lease
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lease, err := repo.FindByID(ctx, input.LeaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
		}
		if err := authorizeLandlord(lease, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if lease.Status != enums.LeaseStatusActive && lease.Status != enums.LeaseStatusExpiringSoon {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only a current lease can be renewed")
		}

		if _, err := repo.LockUnit(ctx, lease.UnitID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock unit")
		}
		interval := Interval{Start: input.StartDate, End: input.EndDate}
		if err := s.ensureNoOverlap(ctx, repo, lease.UnitID, interval, &lease.ID); err != nil {
			return err
		}

		rent := lease.RentAmount
		if input.RentAmount != nil {
			rent = *input.RentAmount
		}
		next := &models.Lease{
			UnitID:        lease.UnitID,
			PropertyID:    lease.PropertyID,
			LandlordID:    lease.LandlordID,
			Type:          lease.Type,
			Status:        enums.LeaseStatusActive,
			StartDate:     input.StartDate,
			EndDate:       input.EndDate,
			RentAmount:    rent,
			DepositAmount: lease.DepositAmount,
			RentDueDay:    lease.RentDueDay,
			LateFeeAmount: lease.LateFeeAmount,
			LateFeeDays:   lease.LateFeeDays,
			Terms:         lease.Terms,
			RenewedFromID: &lease.ID,
		}
		for _, tenant := range lease.Tenants {
			next.Tenants = append(next.Tenants, models.LeaseTenant{
				TenantID:  tenant.TenantID,
				IsPrimary: tenant.IsPrimary,
			})
		}
		if _, err := repo.Create(ctx, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create successor lease")
		}
		if err := repo.Update(ctx, lease.ID, map[string]any{"status": enums.LeaseStatusRenewed}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire renewed lease")
		}
		if err := s.occupyUnit(ctx, repo, next); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventLeaseActivated,
			AggregateType: enums.AggregateLease,
			AggregateID:   next.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: LeaseActivatedEvent{
				LeaseID:    next.ID,
				UnitID:     next.UnitID,
				PropertyID: next.PropertyID,
				StartDate:  next.StartDate,
				EndDate:    next.EndDate,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit lease activated")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionLeaseCreated,
			EntityType:  "lease",
			EntityID:    next.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail: map[string]any{
				"renewed_from": lease.ID,
				"start":        next.StartDate.Format("2006-01-02"),
			},
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		successor = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if input.LeaseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "lease id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lease, err := repo.FindByID(ctx, input.LeaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
		}
		if err := authorizeLandlord(lease, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if lease.Status != enums.LeaseStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft leases can be deleted")
		}
		count, err := repo.CountPaymentsInStatuses(ctx, lease.ID, deleteBlockingStatuses)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count lease payments")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lease has payments on record")
		}
		if err := repo.SoftDelete(ctx, lease.ID, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete lease")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionPropertyDeleted,
			EntityType:  "lease",
			EntityID:    lease.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail: map[string]any{
				"unit_id": lease.UnitID,
				"status":  lease.Status,
			},
		}
		return s.audit.Record(ctx, tx, entry)
	})
}

func (s *service) Expiring(ctx context.Context, input ExpiringInput) ([]models.Lease, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	days := input.DaysAhead
	if days <= 0 {
		days = defaultExpiringDays
	}

	now := s.now()
	var landlordID *uuid.UUID
	if input.ActorRole != enums.ActorRoleAdmin {
		landlordID = &input.ActorUserID
	}
	rows, err := s.repo.FindExpiring(ctx, landlordID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiring leases")
	}
	return rows, nil
}

// ensureNoOverlap rejects the candidate interval when any other blocking
// lease on the unit shares a day with it. Callers must hold the unit lock.
func (s *service) ensureNoOverlap(ctx context.Context, repo Repository, unitID uuid.UUID, candidate Interval, excludeLeaseID *uuid.UUID) error {
	existing, err := repo.FindBlockingByUnit(ctx, unitID, excludeLeaseID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit leases")
	}
	for _, other := range existing {
		if candidate.Overlaps(Interval{Start: other.StartDate, End: other.EndDate}) {
			return pkgerrors.New(pkgerrors.CodeConflict, "lease dates overlap an existing lease on this unit").
				WithDetails(map[string]any{"conflicting_lease_id": other.ID})
		}
	}
	return nil
}

// occupyUnit marks the unit OCCUPIED. Occupancy follows lease status, not
// lease dates: an ACTIVE lease occupies its unit immediately.
func (s *service) occupyUnit(ctx context.Context, repo Repository, lease *models.Lease) error {
	if err := repo.UpdateUnitStatus(ctx, lease.UnitID, enums.UnitStatusOccupied); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark unit occupied")
	}
	return nil
}

// releaseUnit marks the unit VACANT only when no other active lease still
// holds it. Guards against a renewal racing a termination.
func (s *service) releaseUnit(ctx context.Context, repo Repository, lease *models.Lease) error {
	count, err := repo.CountOtherActive(ctx, lease.UnitID, lease.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unit leases")
	}
	if count > 0 {
		return nil
	}
	if err := repo.UpdateUnitStatus(ctx, lease.UnitID, enums.UnitStatusVacant); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark unit vacant")
	}
	return nil
}

func authorizeLandlord(lease *models.Lease, actorUserID uuid.UUID, role enums.ActorRole) error {
	if role == enums.ActorRoleAdmin {
		return nil
	}
	if lease.LandlordID != actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "lease does not belong to landlord")
	}
	return nil
}

func validateCreate(input *CreateInput) error {
	if input.UnitID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid lease type")
	}
	if input.Status == "" {
		input.Status = enums.LeaseStatusDraft
	}
	switch input.Status {
	case enums.LeaseStatusDraft, enums.LeaseStatusPendingSignature, enums.LeaseStatusActive:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "lease must start as DRAFT, PENDING_SIGNATURE or ACTIVE")
	}
	if input.StartDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start date required")
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.Type == enums.LeaseTypeFixedTerm && input.EndDate == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "fixed-term lease requires an end date")
	}
	if !input.RentAmount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "rent amount must be positive")
	}
	if input.DepositAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "deposit amount cannot be negative")
	}
	if input.RentDueDay < 1 || input.RentDueDay > 31 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rent due day must be between 1 and 31")
	}
	if input.LateFeeAmount != nil && input.LateFeeAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "late fee amount cannot be negative")
	}
	if input.LateFeeDays != nil && *input.LateFeeDays < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "late fee days cannot be negative")
	}
	if len(input.Tenants) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one tenant required")
	}
	primaries := 0
	seen := map[uuid.UUID]bool{}
	for _, tenant := range input.Tenants {
		if tenant.TenantID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
		}
		if seen[tenant.TenantID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate tenant on lease")
		}
		seen[tenant.TenantID] = true
		if tenant.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one primary tenant required")
	}
	return nil
}

func buildActor(userID uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role.String()}
}
