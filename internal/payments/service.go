package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	dbpkg "github.com/leaseflow/leaseflow-backend/pkg/db"
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

// CashConfirmedEvent is emitted when a landlord confirms receipt of cash.
type CashConfirmedEvent struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	LeaseID       uuid.UUID       `json:"lease_id"`
	Amount        decimal.Decimal `json:"amount"`
	ReceiptNumber string          `json:"receipt_number"`
}

// CashRejectedEvent is emitted when a landlord disputes a cash claim.
type CashRejectedEvent struct {
	PaymentID uuid.UUID `json:"payment_id"`
	LeaseID   uuid.UUID `json:"lease_id"`
	Reason    string    `json:"reason"`
}

// Service defines payment operations including the cash dual-confirmation flow.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Payment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*PaymentList, error)
	ClaimCash(ctx context.Context, input ClaimInput) (*models.Payment, error)
	ConfirmCash(ctx context.Context, input ConfirmInput) (*models.Payment, error)
	RejectCash(ctx context.Context, input RejectInput) (*models.Payment, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	audit  audit.Service
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, tx txRunner, auditSvc audit.Service, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
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

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Payment, error) {
	if input.LeaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.DueDate.IsZero() || input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date and period required")
	}
	if !input.PeriodEnd.After(input.PeriodStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end must be after period start")
	}
	if input.Amount != nil && !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var created *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lease, err := repo.FindLease(ctx, input.LeaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "lease not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lease")
		}
		if input.ActorRole != enums.ActorRoleAdmin && lease.LandlordID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "lease does not belong to landlord")
		}
		if lease.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "lease is no longer active")
		}

		primary, err := primaryTenant(lease)
		if err != nil {
			return err
		}

		amount := lease.RentAmount
		if input.Amount != nil {
			amount = *input.Amount
		}
		payment := &models.Payment{
			LeaseID:     lease.ID,
			TenantID:    primary,
			LandlordID:  lease.LandlordID,
			Amount:      amount,
			DueDate:     input.DueDate,
			PeriodStart: input.PeriodStart,
			PeriodEnd:   input.PeriodEnd,
			Status:      enums.PaymentStatusPending,
		}
		if _, err := repo.Create(ctx, payment); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_payments_lease_period") {
				return pkgerrors.New(pkgerrors.CodeConflict, "payment already exists for this period")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*PaymentList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return list, nil
}

// ClaimCash is the tenant's statement that cash changed hands. It never moves
// money: the payment stays unsettled until the landlord confirms.
func (s *service) ClaimCash(ctx context.Context, input ClaimInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ClaimedPaidDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "claimed paid date required")
	}

	var claimed *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := s.lockPayment(ctx, repo, input.PaymentID)
		if err != nil {
			return err
		}
		if input.ActorRole != enums.ActorRoleAdmin && payment.TenantID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to tenant")
		}
		if payment.Status != enums.PaymentStatusPending && payment.Status != enums.PaymentStatusOverdue {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment cannot be claimed in its current state")
		}
		if input.ClaimedPaidDate.After(s.now().AddDate(0, 0, 1)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "claimed paid date cannot be in the future")
		}

		now := s.now()
		updates := map[string]any{
			"status":            enums.PaymentStatusProcessing,
			"method":            enums.PaymentMethodCash,
			"claimed_paid_date": input.ClaimedPaidDate,
			"claimed_at":        now,
		}
		if input.ReceiptNumber != nil && strings.TrimSpace(*input.ReceiptNumber) != "" {
			updates["receipt_number"] = strings.TrimSpace(*input.ReceiptNumber)
		}
		if input.Notes != nil {
			updates["claim_notes"] = *input.Notes
		}
		if err := repo.Update(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionPaymentCashClaimed,
			EntityType:  "payment",
			EntityID:    payment.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail: map[string]any{
				"claimed_paid_date": input.ClaimedPaidDate.Format("2006-01-02"),
				"previous_status":   payment.Status,
			},
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		claimed, err = repo.FindByID(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ConfirmCash settles a claimed cash payment. The receipt number is minted
// here unless the tenant supplied one with the claim.
func (s *service) ConfirmCash(ctx context.Context, input ConfirmInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var confirmed *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := s.lockPayment(ctx, repo, input.PaymentID)
		if err != nil {
			return err
		}
		if err := authorizeLandlord(payment, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if payment.Status != enums.PaymentStatusProcessing || payment.Method == nil || *payment.Method != enums.PaymentMethodCash {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only a claimed cash payment can be confirmed")
		}

		now := s.now()
		// Honor a receipt number the tenant already has; mint one otherwise.
		receipt := ""
		if payment.ReceiptNumber != nil {
			receipt = *payment.ReceiptNumber
		} else {
			receipt = newReceiptNumber(now)
		}
		updates := map[string]any{
			"status":         enums.PaymentStatusCompleted,
			"confirmed_at":   now,
			"receipt_number": receipt,
		}
		if err := repo.Update(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionPaymentConfirmed,
			EntityType:  "payment",
			EntityID:    payment.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail: map[string]any{
				"receipt_number": receipt,
				"amount":         payment.Amount,
			},
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()},
			Data: CashConfirmedEvent{
				PaymentID:     payment.ID,
				LeaseID:       payment.LeaseID,
				Amount:        payment.Amount,
				ReceiptNumber: receipt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment confirmed")
		}

		confirmed, err = repo.FindByID(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// RejectCash returns a disputed claim to PENDING. The claim fields are
// cleared so a fresh claim starts clean; the method stays CASH and the
// dispute reason is retained.
func (s *service) RejectCash(ctx context.Context, input RejectInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var rejected *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := s.lockPayment(ctx, repo, input.PaymentID)
		if err != nil {
			return err
		}
		if err := authorizeLandlord(payment, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if payment.Status != enums.PaymentStatusProcessing || payment.Method == nil || *payment.Method != enums.PaymentMethodCash {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only a claimed cash payment can be rejected")
		}

		updates := map[string]any{
			"status":            enums.PaymentStatusPending,
			"claimed_paid_date": nil,
			"claimed_at":        nil,
			"claim_notes":       nil,
			"receipt_number":    nil,
			"rejection_reason":  input.Reason,
		}
		if err := repo.Update(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionPaymentRejected,
			EntityType:  "payment",
			EntityID:    payment.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail:      map[string]any{"reason": input.Reason},
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentRejected,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()},
			Data: CashRejectedEvent{
				PaymentID: payment.ID,
				LeaseID:   payment.LeaseID,
				Reason:    input.Reason,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment rejected")
		}

		rejected, err = repo.FindByID(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (s *service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	count, err := s.repo.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark overdue payments")
	}
	return count, nil
}

func (s *service) lockPayment(ctx context.Context, repo Repository, id uuid.UUID) (*models.Payment, error) {
	payment, err := repo.LockByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payment")
	}
	return payment, nil
}

func authorizeLandlord(payment *models.Payment, actorUserID uuid.UUID, role enums.ActorRole) error {
	if role == enums.ActorRoleAdmin {
		return nil
	}
	if payment.LandlordID != actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to landlord")
	}
	return nil
}

func primaryTenant(lease *models.Lease) (uuid.UUID, error) {
	for _, tenant := range lease.Tenants {
		if tenant.IsPrimary {
			return tenant.TenantID, nil
		}
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "lease has no primary tenant")
}

func newReceiptNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RCPT-%s-%s", now.Format("20060102"), suffix)
}
