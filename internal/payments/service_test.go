package payments

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

type stubPaymentRepo struct {
	payment *models.Payment
	lease   *models.Lease
	created *models.Payment
	updates map[string]any
	overdue int64
}

func (s *stubPaymentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.created = payment
	return payment, nil
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if s.payment == nil || s.payment.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.payment
	return &copied, nil
}

func (s *stubPaymentRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.FindByID(ctx, id)
}

func (s *stubPaymentRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	if status, ok := updates["status"].(enums.PaymentStatus); ok {
		s.payment.Status = status
	}
	if method, ok := updates["method"].(enums.PaymentMethod); ok {
		s.payment.Method = &method
	}
	if receipt, ok := updates["receipt_number"].(string); ok {
		s.payment.ReceiptNumber = &receipt
	}
	return nil
}

func (s *stubPaymentRepo) List(ctx context.Context, params pagination.Params, filters Filters) (*PaymentList, error) {
	panic("not implemented")
}

func (s *stubPaymentRepo) FindLease(ctx context.Context, leaseID uuid.UUID) (*models.Lease, error) {
	if s.lease == nil || s.lease.ID != leaseID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.lease
	return &copied, nil
}

func (s *stubPaymentRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return s.overdue, nil
}

func newTestService(t *testing.T, repo *stubPaymentRepo) (Service, *stubAudit, *stubOutbox) {
	t.Helper()
	auditSvc := &stubAudit{}
	outboxSvc := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, auditSvc, outboxSvc)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, auditSvc, outboxSvc
}

func newStubRepo() *stubPaymentRepo {
	tenantID := uuid.New()
	lease := &models.Lease{
		ID:         uuid.New(),
		UnitID:     uuid.New(),
		PropertyID: uuid.New(),
		LandlordID: uuid.New(),
		Status:     enums.LeaseStatusActive,
		StartDate:  time.Now().AddDate(0, -3, 0),
		RentAmount: decimal.NewFromInt(1500),
		Tenants: []models.LeaseTenant{
			{TenantID: tenantID, IsPrimary: true},
		},
	}
	return &stubPaymentRepo{
		lease: lease,
		payment: &models.Payment{
			ID:          uuid.New(),
			LeaseID:     lease.ID,
			TenantID:    tenantID,
			LandlordID:  lease.LandlordID,
			Amount:      decimal.NewFromInt(1500),
			DueDate:     time.Now().AddDate(0, 0, -5),
			PeriodStart: time.Now().AddDate(0, -1, 0),
			PeriodEnd:   time.Now(),
			Status:      enums.PaymentStatusPending,
		},
	}
}

func TestCreatePaymentDefaultsAmountToLeaseRent(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	payment, err := svc.Create(context.Background(), CreateInput{
		LeaseID:     repo.lease.ID,
		DueDate:     time.Now().AddDate(0, 1, 1),
		PeriodStart: time.Now().AddDate(0, 1, 0),
		PeriodEnd:   time.Now().AddDate(0, 2, 0),
		ActorUserID: repo.lease.LandlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if !payment.Amount.Equal(repo.lease.RentAmount) {
		t.Fatalf("expected amount to default to lease rent, got %s", payment.Amount)
	}
	if payment.TenantID != repo.lease.Tenants[0].TenantID {
		t.Fatalf("expected payment addressed to primary tenant")
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected PENDING, got %s", payment.Status)
	}
}

func TestCreatePaymentForbiddenForOtherLandlord(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{
		LeaseID:     repo.lease.ID,
		DueDate:     time.Now().AddDate(0, 1, 1),
		PeriodStart: time.Now().AddDate(0, 1, 0),
		PeriodEnd:   time.Now().AddDate(0, 2, 0),
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestClaimCashMovesPendingToClaimed(t *testing.T) {
	repo := newStubRepo()
	svc, auditSvc, _ := newTestService(t, repo)

	payment, err := svc.ClaimCash(context.Background(), ClaimInput{
		PaymentID:       repo.payment.ID,
		ClaimedPaidDate: time.Now().AddDate(0, 0, -1),
		ActorUserID:     repo.payment.TenantID,
		ActorRole:       enums.ActorRoleTenant,
	})
	if err != nil {
		t.Fatalf("claim cash: %v", err)
	}
	if payment.Status != enums.PaymentStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", payment.Status)
	}
	if payment.Method == nil || *payment.Method != enums.PaymentMethodCash {
		t.Fatalf("expected method CASH")
	}
	if len(auditSvc.entries) != 1 || auditSvc.entries[0].Action != enums.AuditActionPaymentCashClaimed {
		t.Fatalf("expected PAYMENT_CASH_CLAIMED audit entry")
	}
}

func TestClaimCashStoresTenantReceiptNumber(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	receipt := " RCPT-PAPER-0042 "
	_, err := svc.ClaimCash(context.Background(), ClaimInput{
		PaymentID:       repo.payment.ID,
		ClaimedPaidDate: time.Now().AddDate(0, 0, -1),
		ReceiptNumber:   &receipt,
		ActorUserID:     repo.payment.TenantID,
		ActorRole:       enums.ActorRoleTenant,
	})
	if err != nil {
		t.Fatalf("claim cash: %v", err)
	}
	if repo.updates["receipt_number"] != "RCPT-PAPER-0042" {
		t.Fatalf("expected trimmed receipt number persisted, got %v", repo.updates["receipt_number"])
	}
}

func TestClaimCashAllowedWhenOverdue(t *testing.T) {
	repo := newStubRepo()
	repo.payment.Status = enums.PaymentStatusOverdue
	svc, _, _ := newTestService(t, repo)

	payment, err := svc.ClaimCash(context.Background(), ClaimInput{
		PaymentID:       repo.payment.ID,
		ClaimedPaidDate: time.Now(),
		ActorUserID:     repo.payment.TenantID,
		ActorRole:       enums.ActorRoleTenant,
	})
	if err != nil {
		t.Fatalf("claim cash: %v", err)
	}
	if payment.Status != enums.PaymentStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", payment.Status)
	}
}

func TestClaimCashForbiddenForOtherTenant(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.ClaimCash(context.Background(), ClaimInput{
		PaymentID:       repo.payment.ID,
		ClaimedPaidDate: time.Now(),
		ActorUserID:     uuid.New(),
		ActorRole:       enums.ActorRoleTenant,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestClaimCashRejectsConfirmedPayment(t *testing.T) {
	repo := newStubRepo()
	repo.payment.Status = enums.PaymentStatusCompleted
	svc, _, _ := newTestService(t, repo)

	_, err := svc.ClaimCash(context.Background(), ClaimInput{
		PaymentID:       repo.payment.ID,
		ClaimedPaidDate: time.Now(),
		ActorUserID:     repo.payment.TenantID,
		ActorRole:       enums.ActorRoleTenant,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestConfirmCashIssuesReceiptAndEmitsEvent(t *testing.T) {
	repo := newStubRepo()
	method := enums.PaymentMethodCash
	repo.payment.Status = enums.PaymentStatusProcessing
	repo.payment.Method = &method
	svc, auditSvc, outboxSvc := newTestService(t, repo)

	payment, err := svc.ConfirmCash(context.Background(), ConfirmInput{
		PaymentID:   repo.payment.ID,
		ActorUserID: repo.payment.LandlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("confirm cash: %v", err)
	}
	if payment.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", payment.Status)
	}
	if payment.ReceiptNumber == nil || *payment.ReceiptNumber == "" {
		t.Fatalf("expected a receipt number")
	}
	if len(auditSvc.entries) != 1 || auditSvc.entries[0].Action != enums.AuditActionPaymentConfirmed {
		t.Fatalf("expected PAYMENT_CONFIRMED audit entry")
	}
	if len(outboxSvc.events) != 1 || outboxSvc.events[0].EventType != enums.EventPaymentConfirmed {
		t.Fatalf("expected payment.confirmed event, got %+v", outboxSvc.events)
	}
}

func TestConfirmCashKeepsReceiptNumberFromClaim(t *testing.T) {
	repo := newStubRepo()
	method := enums.PaymentMethodCash
	receipt := "RCPT-PAPER-0042"
	repo.payment.Status = enums.PaymentStatusProcessing
	repo.payment.Method = &method
	repo.payment.ReceiptNumber = &receipt
	svc, _, _ := newTestService(t, repo)

	payment, err := svc.ConfirmCash(context.Background(), ConfirmInput{
		PaymentID:   repo.payment.ID,
		ActorUserID: repo.payment.LandlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("confirm cash: %v", err)
	}
	if payment.ReceiptNumber == nil || *payment.ReceiptNumber != receipt {
		t.Fatalf("expected the claimed receipt number to survive confirmation, got %v", payment.ReceiptNumber)
	}
}

func TestConfirmCashRequiresClaimedStatus(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.ConfirmCash(context.Background(), ConfirmInput{
		PaymentID:   repo.payment.ID,
		ActorUserID: repo.payment.LandlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestConfirmCashForbiddenForTenant(t *testing.T) {
	repo := newStubRepo()
	repo.payment.Status = enums.PaymentStatusProcessing
	svc, _, _ := newTestService(t, repo)

	_, err := svc.ConfirmCash(context.Background(), ConfirmInput{
		PaymentID:   repo.payment.ID,
		ActorUserID: repo.payment.TenantID,
		ActorRole:   enums.ActorRoleTenant,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestRejectCashClearsClaimAndKeepsCashMethod(t *testing.T) {
	repo := newStubRepo()
	method := enums.PaymentMethodCash
	claimedAt := time.Now().Add(-time.Hour)
	claimedDate := time.Now().AddDate(0, 0, -1)
	repo.payment.Status = enums.PaymentStatusProcessing
	repo.payment.Method = &method
	repo.payment.ClaimedAt = &claimedAt
	repo.payment.ClaimedPaidDate = &claimedDate
	svc, auditSvc, outboxSvc := newTestService(t, repo)

	payment, err := svc.RejectCash(context.Background(), RejectInput{
		PaymentID:   repo.payment.ID,
		Reason:      "no cash was received",
		ActorUserID: repo.payment.LandlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if err != nil {
		t.Fatalf("reject cash: %v", err)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected PENDING, got %s", payment.Status)
	}
	if payment.Method == nil || *payment.Method != enums.PaymentMethodCash {
		t.Fatalf("method should stay CASH across a rejection")
	}
	for _, field := range []string{"claimed_paid_date", "claimed_at", "claim_notes", "receipt_number"} {
		value, ok := repo.updates[field]
		if !ok || value != nil {
			t.Fatalf("expected %s to be cleared, got %v", field, value)
		}
	}
	if repo.updates["rejection_reason"] != "no cash was received" {
		t.Fatalf("expected rejection reason to be stored")
	}
	if len(auditSvc.entries) != 1 || auditSvc.entries[0].Action != enums.AuditActionPaymentRejected {
		t.Fatalf("expected PAYMENT_REJECTED audit entry")
	}
	if len(outboxSvc.events) != 1 || outboxSvc.events[0].EventType != enums.EventPaymentRejected {
		t.Fatalf("expected payment.rejected event")
	}
}

func TestRejectCashRequiresReason(t *testing.T) {
	repo := newStubRepo()
	repo.payment.Status = enums.PaymentStatusProcessing
	svc, _, _ := newTestService(t, repo)

	_, err := svc.RejectCash(context.Background(), RejectInput{
		PaymentID:   repo.payment.ID,
		Reason:      "  ",
		ActorUserID: repo.payment.LandlordID,
		ActorRole:   enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestMarkOverdueReturnsAffectedCount(t *testing.T) {
	repo := newStubRepo()
	repo.overdue = 3
	svc, _, _ := newTestService(t, repo)

	count, err := svc.MarkOverdue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("mark overdue: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 payments marked overdue, got %d", count)
	}
}
