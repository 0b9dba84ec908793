package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutboxService struct {
	events []outbox.DomainEvent
}

func (f *fakeOutboxService) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (f *fakeAuditRecorder) Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeLeaseReader struct {
	endingSoon []models.Lease
	ended      []models.Lease
}

func (f *fakeLeaseReader) FindActiveEndingBetween(ctx context.Context, from, to time.Time) ([]models.Lease, error) {
	return f.endingSoon, nil
}

func (f *fakeLeaseReader) FindEndedBefore(ctx context.Context, cutoff time.Time) ([]models.Lease, error) {
	return f.ended, nil
}

type fakeLeaseRepo struct {
	leases       map[uuid.UUID]*models.Lease
	otherActive  int64
	updates      []map[string]any
	unitStatuses []enums.UnitStatus
}

func (f *fakeLeaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	lease, ok := f.leases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *lease
	return &copied, nil
}

func (f *fakeLeaseRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates = append(f.updates, updates)
	if status, ok := updates["status"].(enums.LeaseStatus); ok {
		f.leases[id].Status = status
	}
	return nil
}

func (f *fakeLeaseRepo) CountOtherActive(ctx context.Context, unitID, excludeLeaseID uuid.UUID) (int64, error) {
	return f.otherActive, nil
}

func (f *fakeLeaseRepo) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	f.unitStatuses = append(f.unitStatuses, status)
	return nil
}

func newLeaseExpiryJobTest(t *testing.T, reader *fakeLeaseReader, repo *fakeLeaseRepo) (*leaseExpiryJob, *fakeOutboxService, *fakeAuditRecorder) {
	t.Helper()
	outboxSvc := &fakeOutboxService{}
	auditSvc := &fakeAuditRecorder{}
	jobIface, err := NewLeaseExpiryJob(LeaseExpiryJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          fakeTxRunner{},
		LeaseReader: reader,
		Outbox:      outboxSvc,
		Audit:       auditSvc,
		RepoFactory: func(tx *gorm.DB) transactionalLeaseRepo { return repo },
	})
	if err != nil {
		t.Fatalf("NewLeaseExpiryJob: %v", err)
	}
	job, ok := jobIface.(*leaseExpiryJob)
	if !ok {
		t.Fatalf("expected leaseExpiryJob, got %T", jobIface)
	}
	return job, outboxSvc, auditSvc
}

func TestLeaseExpiryJob_flagsActiveLeasesEndingSoon(t *testing.T) {
	end := time.Now().AddDate(0, 0, 14)
	lease := models.Lease{
		ID:      uuid.New(),
		UnitID:  uuid.New(),
		Status:  enums.LeaseStatusActive,
		EndDate: &end,
	}
	repo := &fakeLeaseRepo{leases: map[uuid.UUID]*models.Lease{lease.ID: &lease}}
	job, outboxSvc, auditSvc := newLeaseExpiryJobTest(t, &fakeLeaseReader{endingSoon: []models.Lease{lease}}, repo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.leases[lease.ID].Status != enums.LeaseStatusExpiringSoon {
		t.Fatalf("expected EXPIRING_SOON, got %s", repo.leases[lease.ID].Status)
	}
	if len(outboxSvc.events) != 0 {
		t.Fatalf("flagging should not emit events, got %d", len(outboxSvc.events))
	}
	if len(auditSvc.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(auditSvc.entries))
	}
	if auditSvc.entries[0].ActorRole != enums.ActorRoleSystem {
		t.Fatalf("expected system actor, got %s", auditSvc.entries[0].ActorRole)
	}
}

func TestLeaseExpiryJob_skipsLeaseNoLongerActive(t *testing.T) {
	end := time.Now().AddDate(0, 0, 14)
	lease := models.Lease{
		ID:      uuid.New(),
		UnitID:  uuid.New(),
		Status:  enums.LeaseStatusTerminated,
		EndDate: &end,
	}
	repo := &fakeLeaseRepo{leases: map[uuid.UUID]*models.Lease{lease.ID: &lease}}
	job, _, _ := newLeaseExpiryJobTest(t, &fakeLeaseReader{endingSoon: []models.Lease{lease}}, repo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("terminated lease should not be touched")
	}
}

func TestLeaseExpiryJob_expiresEndedLeaseAndReleasesUnit(t *testing.T) {
	end := time.Now().AddDate(0, 0, -1)
	lease := models.Lease{
		ID:         uuid.New(),
		UnitID:     uuid.New(),
		PropertyID: uuid.New(),
		Status:     enums.LeaseStatusExpiringSoon,
		EndDate:    &end,
	}
	repo := &fakeLeaseRepo{leases: map[uuid.UUID]*models.Lease{lease.ID: &lease}}
	job, outboxSvc, auditSvc := newLeaseExpiryJobTest(t, &fakeLeaseReader{ended: []models.Lease{lease}}, repo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.leases[lease.ID].Status != enums.LeaseStatusExpired {
		t.Fatalf("expected EXPIRED, got %s", repo.leases[lease.ID].Status)
	}
	if len(auditSvc.entries) != 1 || auditSvc.entries[0].ActorRole != enums.ActorRoleSystem {
		t.Fatalf("expected a system-actor audit entry, got %+v", auditSvc.entries)
	}
	if len(repo.unitStatuses) != 1 || repo.unitStatuses[0] != enums.UnitStatusVacant {
		t.Fatalf("expected unit released to VACANT")
	}
	if len(outboxSvc.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(outboxSvc.events))
	}
	event := outboxSvc.events[0]
	if event.EventType != enums.EventLeaseExpired {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	payload, ok := event.Data.(LeaseExpiredEvent)
	if !ok {
		t.Fatal("expected lease expired payload")
	}
	if payload.LeaseID != lease.ID {
		t.Fatalf("unexpected lease id: %s", payload.LeaseID)
	}
}

func TestLeaseExpiryJob_keepsUnitWhenAnotherLeaseBlocks(t *testing.T) {
	end := time.Now().AddDate(0, 0, -1)
	lease := models.Lease{
		ID:      uuid.New(),
		UnitID:  uuid.New(),
		Status:  enums.LeaseStatusActive,
		EndDate: &end,
	}
	repo := &fakeLeaseRepo{
		leases:      map[uuid.UUID]*models.Lease{lease.ID: &lease},
		otherActive: 1,
	}
	job, _, _ := newLeaseExpiryJobTest(t, &fakeLeaseReader{ended: []models.Lease{lease}}, repo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.unitStatuses) != 0 {
		t.Fatalf("unit should stay occupied while another lease blocks it")
	}
}
