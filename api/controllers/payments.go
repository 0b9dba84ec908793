package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/api/middleware"
	"github.com/leaseflow/leaseflow-backend/api/responses"
	"github.com/leaseflow/leaseflow-backend/api/validators"
	"github.com/leaseflow/leaseflow-backend/internal/payments"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

type paymentCreateRequest struct {
	LeaseID     string           `json:"lease_id" validate:"required,uuid"`
	Amount      *decimal.Decimal `json:"amount"`
	DueDate     string           `json:"due_date" validate:"required"`
	PeriodStart string           `json:"period_start" validate:"required"`
	PeriodEnd   string           `json:"period_end" validate:"required"`
}

func (r paymentCreateRequest) toInput(actorID uuid.UUID, role enums.ActorRole) (payments.CreateInput, error) {
	leaseID, err := uuid.Parse(strings.TrimSpace(r.LeaseID))
	if err != nil {
		return payments.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lease_id")
	}
	dueDate, err := parseDate(r.DueDate, "due_date")
	if err != nil {
		return payments.CreateInput{}, err
	}
	periodStart, err := parseDate(r.PeriodStart, "period_start")
	if err != nil {
		return payments.CreateInput{}, err
	}
	periodEnd, err := parseDate(r.PeriodEnd, "period_end")
	if err != nil {
		return payments.CreateInput{}, err
	}
	return payments.CreateInput{
		LeaseID:     leaseID,
		Amount:      r.Amount,
		DueDate:     dueDate,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		ActorUserID: actorID,
		ActorRole:   role,
	}, nil
}

// PaymentCreate records one rent obligation for a lease period.
func PaymentCreate(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload paymentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.UserIDFromContext(r.Context()), middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponseFromModel(created))
	}
}

// PaymentGet returns one payment by id.
func PaymentGet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(payment))
	}
}

// PaymentList returns a cursor-paginated page of payments.
func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := payments.Filters{}
		if filters.LeaseID, err = validators.ParseQueryUUID(r, "lease_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParsePaymentStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status"))
				return
			}
			filters.Status = &status
		}
		// Tenants and landlords each see only their own payments.
		actorID := middleware.UserIDFromContext(r.Context())
		switch middleware.RoleFromContext(r.Context()) {
		case enums.ActorRoleTenant:
			filters.TenantID = &actorID
		case enums.ActorRoleLandlord:
			filters.LandlordID = &actorID
		}

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]paymentResponse, 0, len(list.Payments))
		for i := range list.Payments {
			items = append(items, paymentResponseFromModel(&list.Payments[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"payments":    items,
			"next_cursor": list.NextCursor,
		})
	}
}

type paymentClaimRequest struct {
	ClaimedPaidDate string  `json:"claimed_paid_date" validate:"required"`
	ReceiptNumber   *string `json:"receipt_number" validate:"omitempty,max=64"`
	Notes           *string `json:"notes"`
}

// PaymentClaimCash records the tenant's half of the cash flow.
func PaymentClaimCash(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentClaimRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		claimedDate, err := parseDate(payload.ClaimedPaidDate, "claimed_paid_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.ClaimCash(r.Context(), payments.ClaimInput{
			PaymentID:       id,
			ClaimedPaidDate: claimedDate,
			ReceiptNumber:   payload.ReceiptNumber,
			Notes:           payload.Notes,
			ActorUserID:     middleware.UserIDFromContext(r.Context()),
			ActorRole:       middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(payment))
	}
}

// PaymentConfirmCash records the landlord's acknowledgement of received cash.
func PaymentConfirmCash(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.ConfirmCash(r.Context(), payments.ConfirmInput{
			PaymentID:   id,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(payment))
	}
}

type paymentRejectRequest struct {
	Reason string `json:"reason" validate:"required,min=1"`
}

// PaymentRejectCash disputes a cash claim and returns the payment to PENDING.
func PaymentRejectCash(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "paymentId"), "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.RejectCash(r.Context(), payments.RejectInput{
			PaymentID:   id,
			Reason:      strings.TrimSpace(payload.Reason),
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(payment))
	}
}

type paymentResponse struct {
	ID              uuid.UUID            `json:"id"`
	LeaseID         uuid.UUID            `json:"lease_id"`
	TenantID        uuid.UUID            `json:"tenant_id"`
	LandlordID      uuid.UUID            `json:"landlord_id"`
	Amount          decimal.Decimal      `json:"amount"`
	DueDate         string               `json:"due_date"`
	PeriodStart     string               `json:"period_start"`
	PeriodEnd       string               `json:"period_end"`
	Status          enums.PaymentStatus  `json:"status"`
	Method          *enums.PaymentMethod `json:"method,omitempty"`
	ClaimedPaidDate *string              `json:"claimed_paid_date,omitempty"`
	ClaimedAt       *time.Time           `json:"claimed_at,omitempty"`
	ClaimNotes      *string              `json:"claim_notes,omitempty"`
	ConfirmedAt     *time.Time           `json:"confirmed_at,omitempty"`
	ReceiptNumber   *string              `json:"receipt_number,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func paymentResponseFromModel(m *models.Payment) paymentResponse {
	resp := paymentResponse{
		ID:              m.ID,
		LeaseID:         m.LeaseID,
		TenantID:        m.TenantID,
		LandlordID:      m.LandlordID,
		Amount:          m.Amount,
		DueDate:         m.DueDate.Format(dateLayout),
		PeriodStart:     m.PeriodStart.Format(dateLayout),
		PeriodEnd:       m.PeriodEnd.Format(dateLayout),
		Status:          m.Status,
		Method:          m.Method,
		ClaimedAt:       m.ClaimedAt,
		ClaimNotes:      m.ClaimNotes,
		ConfirmedAt:     m.ConfirmedAt,
		ReceiptNumber:   m.ReceiptNumber,
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ClaimedPaidDate != nil {
		formatted := m.ClaimedPaidDate.Format(dateLayout)
		resp.ClaimedPaidDate = &formatted
	}
	return resp
}
