package leases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/outbox"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubAudit struct {
	entries []audit.Entry
}

func (s *stubAudit) Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAudit) List(ctx context.Context, params pagination.Params, filters audit.Filters) (*audit.EntryList, error) {
	panic("not implemented")
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubLeaseRepo struct {
	lease           *models.Lease
	unit            *models.Unit
	landlordID      uuid.UUID
	blocking        []models.Lease
	otherActive     int64
	created         *models.Lease
	updates         map[string]any
	unitStatus      *enums.UnitStatus
	paymentCount    int64
	deletedAt       *time.Time
	expiring        []models.Lease
	inactiveTenants bool
}

func (s *stubLeaseRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubLeaseRepo) Create(ctx context.Context, lease *models.Lease) (*models.Lease, error) {
	if lease.ID == uuid.Nil {
		lease.ID = uuid.New()
	}
	s.created = lease
	return lease, nil
}

func (s *stubLeaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	if s.lease == nil || s.lease.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.lease
	return &copied, nil
}

func (s *stubLeaseRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

func (s *stubLeaseRepo) List(ctx context.Context, params pagination.Params, filters Filters) (*LeaseList, error) {
	panic("not implemented")
}

func (s *stubLeaseRepo) FindBlockingByUnit(ctx context.Context, unitID uuid.UUID, excludeLeaseID *uuid.UUID) ([]models.Lease, error) {
	out := []models.Lease{}
	for _, lease := range s.blocking {
		if excludeLeaseID != nil && lease.ID == *excludeLeaseID {
			continue
		}
		out = append(out, lease)
	}
	return out, nil
}

func (s *stubLeaseRepo) CountOtherActive(ctx context.Context, unitID, excludeLeaseID uuid.UUID) (int64, error) {
	return s.otherActive, nil
}

func (s *stubLeaseRepo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.deletedAt = &at
	return nil
}

func (s *stubLeaseRepo) CountPaymentsInStatuses(ctx context.Context, leaseID uuid.UUID, statuses []enums.PaymentStatus) (int64, error) {
	return s.paymentCount, nil
}

func (s *stubLeaseRepo) FindExpiring(ctx context.Context, landlordID *uuid.UUID, from, to time.Time) ([]models.Lease, error) {
	out := []models.Lease{}
	for _, lease := range s.expiring {
		if landlordID != nil && lease.LandlordID != *landlordID {
			continue
		}
		out = append(out, lease)
	}
	return out, nil
}

func (s *stubLeaseRepo) FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]models.Lease, error) {
	panic("not implemented")
}

func (s *stubLeaseRepo) FindEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Lease, error) {
	panic("not implemented")
}

func (s *stubLeaseRepo) LockUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	if s.unit == nil || s.unit.ID != unitID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.unit, nil
}

func (s *stubLeaseRepo) FindPropertyLandlord(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	return s.landlordID, nil
}

func (s *stubLeaseRepo) CountActiveTenants(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if s.inactiveTenants {
		return 0, nil
	}
	return int64(len(ids)), nil
}

func (s *stubLeaseRepo) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	s.unitStatus = &status
	return nil
}

func newTestService(t *testing.T, repo *stubLeaseRepo) (Service, *stubAudit, *stubOutbox) {
	t.Helper()
	auditSvc := &stubAudit{}
	outboxSvc := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, auditSvc, outboxSvc)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, auditSvc, outboxSvc
}

func validCreateInput(repo *stubLeaseRepo) CreateInput {
	return CreateInput{
		UnitID:        repo.unit.ID,
		Type:          enums.LeaseTypeFixedTerm,
		Status:        enums.LeaseStatusActive,
		StartDate:     time.Now().AddDate(0, -1, 0),
		EndDate:       dayAfterMonths(11),
		RentAmount:    decimal.NewFromInt(1500),
		DepositAmount: decimal.NewFromInt(1500),
		RentDueDay:    1,
		Tenants: []TenantRef{
			{TenantID: uuid.New(), IsPrimary: true},
		},
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	}
}

func dayAfterMonths(months int) *time.Time {
	t := time.Now().AddDate(0, months, 0)
	return &t
}

func newStubRepo() *stubLeaseRepo {
	return &stubLeaseRepo{
		unit: &models.Unit{
			ID:         uuid.New(),
			PropertyID: uuid.New(),
			Status:     enums.UnitStatusVacant,
		},
		landlordID: uuid.New(),
	}
}

func TestCreateLeaseActivatesAndOccupiesUnit(t *testing.T) {
	repo := newStubRepo()
	svc, auditSvc, outboxSvc := newTestService(t, repo)

	lease, err := svc.Create(context.Background(), validCreateInput(repo))
	if err != nil {
		t.Fatalf("create lease: %v", err)
	}
	if lease.Status != enums.LeaseStatusActive {
		t.Fatalf("expected ACTIVE, got %s", lease.Status)
	}
	if repo.unitStatus == nil || *repo.unitStatus != enums.UnitStatusOccupied {
		t.Fatalf("expected unit to be marked occupied")
	}
	if len(auditSvc.entries) != 1 || auditSvc.entries[0].Action != enums.AuditActionLeaseCreated {
		t.Fatalf("expected LEASE_CREATED audit entry, got %+v", auditSvc.entries)
	}
	if len(outboxSvc.events) != 1 || outboxSvc.events[0].EventType != enums.EventLeaseActivated {
		t.Fatalf("expected lease.activated event, got %+v", outboxSvc.events)
	}
}

func TestCreateLeaseRejectsOverlap(t *testing.T) {
	repo := newStubRepo()
	end := time.Now().AddDate(1, 0, 0)
	repo.blocking = []models.Lease{{
		ID:        uuid.New(),
		UnitID:    repo.unit.ID,
		Status:    enums.LeaseStatusActive,
		StartDate: time.Now().AddDate(0, -6, 0),
		EndDate:   &end,
	}}
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), validCreateInput(repo))
	if err == nil {
		t.Fatalf("expected overlap rejection")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %s", pkgerrors.As(err).Code())
	}
}

func TestCreateLeaseAllowsAdjacentInterval(t *testing.T) {
	repo := newStubRepo()
	input := validCreateInput(repo)
	// Existing lease ends exactly when the new one starts.
	repo.blocking = []models.Lease{{
		ID:        uuid.New(),
		UnitID:    repo.unit.ID,
		Status:    enums.LeaseStatusActive,
		StartDate: input.StartDate.AddDate(-1, 0, 0),
		EndDate:   &input.StartDate,
	}}
	svc, _, _ := newTestService(t, repo)

	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("adjacent lease should not conflict: %v", err)
	}
}

func TestCreateLeaseRequiresSinglePrimaryTenant(t *testing.T) {
	repo := newStubRepo()
	input := validCreateInput(repo)
	input.Tenants = []TenantRef{
		{TenantID: uuid.New(), IsPrimary: true},
		{TenantID: uuid.New(), IsPrimary: true},
	}
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), input)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateLeaseForbiddenForOtherLandlord(t *testing.T) {
	repo := newStubRepo()
	input := validCreateInput(repo)
	input.ActorUserID = uuid.New()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), input)
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestTransitionRejectsTerminalLease(t *testing.T) {
	repo := newStubRepo()
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		LandlordID: repo.landlordID,
		Status:     enums.LeaseStatusExpired,
		StartDate:  time.Now().AddDate(-1, 0, 0),
	}
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Transition(context.Background(), TransitionInput{
		LeaseID:     repo.lease.ID,
		Target:      enums.LeaseStatusActive,
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestTransitionToRenewedIsRejected(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Transition(context.Background(), TransitionInput{
		LeaseID:     uuid.New(),
		Target:      enums.LeaseStatusRenewed,
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTerminateReleasesUnitWhenLastBlockingLease(t *testing.T) {
	repo := newStubRepo()
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		LandlordID: repo.landlordID,
		Status:     enums.LeaseStatusActive,
		StartDate:  time.Now().AddDate(0, -3, 0),
	}
	svc, auditSvc, outboxSvc := newTestService(t, repo)

	terminationDate := time.Now().AddDate(0, 0, 7)
	lease, err := svc.Terminate(context.Background(), TerminateInput{
		LeaseID:         repo.lease.ID,
		TerminationDate: terminationDate,
		Reason:          "tenant moved out of the unit",
		ActorUserID:     repo.landlordID,
		ActorRole:       enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("terminate lease: %v", err)
	}
	if lease.Status != enums.LeaseStatusTerminated {
		t.Fatalf("expected TERMINATED, got %s", lease.Status)
	}
	if _, ok := repo.updates["terminated_at"]; !ok {
		t.Fatalf("expected terminated_at to be persisted")
	}
	if repo.updates["end_date"] != terminationDate {
		t.Fatalf("expected end_date set to the termination date")
	}
	if repo.unitStatus == nil || *repo.unitStatus != enums.UnitStatusVacant {
		t.Fatalf("expected unit to be released")
	}
	if len(auditSvc.entries) != 1 || auditSvc.entries[0].Action != enums.AuditActionLeaseTerminated {
		t.Fatalf("expected LEASE_TERMINATED audit entry")
	}
	if len(outboxSvc.events) != 1 || outboxSvc.events[0].EventType != enums.EventLeaseTerminated {
		t.Fatalf("expected lease.terminated event")
	}
}

func TestTerminateKeepsUnitOccupiedWhenAnotherLeaseHoldsIt(t *testing.T) {
	repo := newStubRepo()
	repo.otherActive = 1
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		LandlordID: repo.landlordID,
		Status:     enums.LeaseStatusActive,
		StartDate:  time.Now().AddDate(0, -3, 0),
	}
	svc, _, _ := newTestService(t, repo)

	if _, err := svc.Terminate(context.Background(), TerminateInput{
		LeaseID:         repo.lease.ID,
		TerminationDate: time.Now(),
		Reason:          "tenant moved out of the unit",
		ActorUserID:     repo.landlordID,
		ActorRole:       enums.ActorRoleLandlord,
	}); err != nil {
		t.Fatalf("terminate lease: %v", err)
	}
	if repo.unitStatus != nil {
		t.Fatalf("unit status should be untouched while another lease blocks it")
	}
}

func TestRenewCreatesSuccessorAndRetiresCurrent(t *testing.T) {
	repo := newStubRepo()
	end := time.Now().AddDate(0, 1, 0)
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		PropertyID: repo.unit.PropertyID,
		LandlordID: repo.landlordID,
		Type:       enums.LeaseTypeFixedTerm,
		Status:     enums.LeaseStatusExpiringSoon,
		StartDate:  time.Now().AddDate(-1, 1, 0),
		EndDate:    &end,
		RentAmount: decimal.NewFromInt(1500),
		Tenants: []models.LeaseTenant{
			{TenantID: uuid.New(), IsPrimary: true},
		},
	}
	svc, _, outboxSvc := newTestService(t, repo)

	newRent := decimal.NewFromInt(1600)
	successor, err := svc.Renew(context.Background(), RenewInput{
		LeaseID:     repo.lease.ID,
		StartDate:   end,
		EndDate:     dayAfterMonths(13),
		RentAmount:  &newRent,
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("renew lease: %v", err)
	}
	if successor.RenewedFromID == nil || *successor.RenewedFromID != repo.lease.ID {
		t.Fatalf("successor should reference the renewed lease")
	}
	if !successor.RentAmount.Equal(newRent) {
		t.Fatalf("expected updated rent, got %s", successor.RentAmount)
	}
	if len(successor.Tenants) != 1 {
		t.Fatalf("tenants should carry over")
	}
	if repo.updates["status"] != enums.LeaseStatusRenewed {
		t.Fatalf("old lease should move to RENEWED, got %v", repo.updates["status"])
	}
	if len(outboxSvc.events) != 1 || outboxSvc.events[0].EventType != enums.EventLeaseActivated {
		t.Fatalf("expected lease.activated event for successor")
	}
}

func TestRenewRejectsDraftLease(t *testing.T) {
	repo := newStubRepo()
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		LandlordID: repo.landlordID,
		Status:     enums.LeaseStatusDraft,
		StartDate:  time.Now(),
	}
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Renew(context.Background(), RenewInput{
		LeaseID:     repo.lease.ID,
		StartDate:   time.Now(),
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestDeleteRemovesDraftLease(t *testing.T) {
	repo := newStubRepo()
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		LandlordID: repo.landlordID,
		Status:     enums.LeaseStatusDraft,
		StartDate:  time.Now(),
	}
	svc, auditSvc, _ := newTestService(t, repo)

	err := svc.Delete(context.Background(), DeleteInput{
		LeaseID:     repo.lease.ID,
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("delete lease: %v", err)
	}
	if repo.deletedAt == nil {
		t.Fatalf("expected lease to be soft deleted")
	}
	if len(auditSvc.entries) != 1 || auditSvc.entries[0].Action != enums.AuditActionPropertyDeleted {
		t.Fatalf("expected PROPERTY_DELETED audit entry, got %+v", auditSvc.entries)
	}
}

func TestDeleteRejectsNonDraftLease(t *testing.T) {
	repo := newStubRepo()
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		LandlordID: repo.landlordID,
		Status:     enums.LeaseStatusActive,
		StartDate:  time.Now(),
	}
	svc, _, _ := newTestService(t, repo)

	err := svc.Delete(context.Background(), DeleteInput{
		LeaseID:     repo.lease.ID,
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	if repo.deletedAt != nil {
		t.Fatalf("lease must not be deleted")
	}
}

func TestDeleteRejectsLeaseWithPayments(t *testing.T) {
	repo := newStubRepo()
	repo.lease = &models.Lease{
		ID:         uuid.New(),
		UnitID:     repo.unit.ID,
		LandlordID: repo.landlordID,
		Status:     enums.LeaseStatusDraft,
		StartDate:  time.Now(),
	}
	repo.paymentCount = 2
	svc, _, _ := newTestService(t, repo)

	err := svc.Delete(context.Background(), DeleteInput{
		LeaseID:     repo.lease.ID,
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestExpiringScopesLandlordToOwnLeases(t *testing.T) {
	repo := newStubRepo()
	end := time.Now().AddDate(0, 0, 30)
	repo.expiring = []models.Lease{
		{ID: uuid.New(), LandlordID: repo.landlordID, Status: enums.LeaseStatusActive, EndDate: &end},
		{ID: uuid.New(), LandlordID: uuid.New(), Status: enums.LeaseStatusActive, EndDate: &end},
	}
	svc, _, _ := newTestService(t, repo)

	rows, err := svc.Expiring(context.Background(), ExpiringInput{
		ActorUserID: repo.landlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if len(rows) != 1 || rows[0].LandlordID != repo.landlordID {
		t.Fatalf("expected only the landlord's lease, got %+v", rows)
	}
}

func TestCreateLeaseRejectsInactiveTenant(t *testing.T) {
	repo := newStubRepo()
	repo.inactiveTenants = true
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), validCreateInput(repo))
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if repo.created != nil {
		t.Fatalf("lease must not be created")
	}
}
