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
	"github.com/leaseflow/leaseflow-backend/internal/leases"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

func parseDate(value, field string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").WithDetails(map[string]any{"field": field, "expected": dateLayout})
	}
	return parsed, nil
}

func parseOptionalDate(value *string, field string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := parseDate(*value, field)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

type leaseTenantRequest struct {
	TenantID  string `json:"tenant_id" validate:"required,uuid"`
	IsPrimary bool   `json:"is_primary"`
}

type leaseCreateRequest struct {
	UnitID        string               `json:"unit_id" validate:"required,uuid"`
	Type          string               `json:"type" validate:"required"`
	Status        string               `json:"status"`
	StartDate     string               `json:"start_date" validate:"required"`
	EndDate       *string              `json:"end_date"`
	RentAmount    decimal.Decimal      `json:"rent_amount" validate:"required"`
	DepositAmount decimal.Decimal      `json:"deposit_amount"`
	RentDueDay    int                  `json:"rent_due_day" validate:"required,min=1,max=31"`
	LateFeeAmount *decimal.Decimal     `json:"late_fee_amount"`
	LateFeeDays   *int                 `json:"late_fee_days" validate:"omitempty,min=0"`
	Terms         *string              `json:"terms"`
	Tenants       []leaseTenantRequest `json:"tenants" validate:"required,min=1,dive"`
}

func (r leaseCreateRequest) toInput(actorID uuid.UUID, role enums.ActorRole) (leases.CreateInput, error) {
	unitID, err := uuid.Parse(strings.TrimSpace(r.UnitID))
	if err != nil {
		return leases.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_id")
	}
	leaseType, err := enums.ParseLeaseType(strings.TrimSpace(r.Type))
	if err != nil {
		return leases.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid lease type")
	}
	status := enums.LeaseStatusDraft
	if strings.TrimSpace(r.Status) != "" {
		status, err = enums.ParseLeaseStatus(strings.TrimSpace(r.Status))
		if err != nil {
			return leases.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid lease status")
		}
	}
	startDate, err := parseDate(r.StartDate, "start_date")
	if err != nil {
		return leases.CreateInput{}, err
	}
	endDate, err := parseOptionalDate(r.EndDate, "end_date")
	if err != nil {
		return leases.CreateInput{}, err
	}

	tenants := make([]leases.TenantRef, 0, len(r.Tenants))
	for _, tenant := range r.Tenants {
		tenantID, err := uuid.Parse(strings.TrimSpace(tenant.TenantID))
		if err != nil {
			return leases.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant_id")
		}
		tenants = append(tenants, leases.TenantRef{TenantID: tenantID, IsPrimary: tenant.IsPrimary})
	}

	return leases.CreateInput{
		UnitID:        unitID,
		Type:          leaseType,
		Status:        status,
		StartDate:     startDate,
		EndDate:       endDate,
		RentAmount:    r.RentAmount,
		DepositAmount: r.DepositAmount,
		RentDueDay:    r.RentDueDay,
		LateFeeAmount: r.LateFeeAmount,
		LateFeeDays:   r.LateFeeDays,
		Terms:         r.Terms,
		Tenants:       tenants,
		ActorUserID:   actorID,
		ActorRole:     role,
	}, nil
}

// LeaseCreate handles creating a lease against a unit.
func LeaseCreate(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload leaseCreateRequest
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

		responses.WriteSuccessStatus(w, http.StatusCreated, leaseResponseFromModel(created))
	}
}

// LeaseGet returns one lease by id.
func LeaseGet(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lease, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, leaseResponseFromModel(lease))
	}
}

// LeaseList returns a cursor-paginated page of leases.
func LeaseList(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := leases.Filters{}
		if filters.PropertyID, err = validators.ParseQueryUUID(r, "property_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.UnitID, err = validators.ParseQueryUUID(r, "unit_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.TenantID, err = validators.ParseQueryUUID(r, "tenant_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseLeaseStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid lease status"))
				return
			}
			filters.Status = &status
		}
		// Landlords only see their own leases.
		if middleware.RoleFromContext(r.Context()) == enums.ActorRoleLandlord {
			actorID := middleware.UserIDFromContext(r.Context())
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

		items := make([]leaseResponse, 0, len(list.Leases))
		for i := range list.Leases {
			items = append(items, leaseResponseFromModel(&list.Leases[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"leases":      items,
			"next_cursor": list.NextCursor,
		})
	}
}

type leaseUpdateRequest struct {
	RentAmount    *decimal.Decimal `json:"rent_amount"`
	DepositAmount *decimal.Decimal `json:"deposit_amount"`
	RentDueDay    *int             `json:"rent_due_day" validate:"omitempty,min=1,max=31"`
	LateFeeAmount *decimal.Decimal `json:"late_fee_amount"`
	LateFeeDays   *int             `json:"late_fee_days" validate:"omitempty,min=0"`
	Terms         *string          `json:"terms"`
	Notes         *string          `json:"notes"`
	EndDate       *string          `json:"end_date"`
	ClearEndDate  bool             `json:"clear_end_date"`
}

// LeaseUpdate changes the mutable terms of a lease.
func LeaseUpdate(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload leaseUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		endDate, err := parseOptionalDate(payload.EndDate, "end_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), leases.UpdateInput{
			LeaseID:       id,
			RentAmount:    payload.RentAmount,
			DepositAmount: payload.DepositAmount,
			RentDueDay:    payload.RentDueDay,
			LateFeeAmount: payload.LateFeeAmount,
			LateFeeDays:   payload.LateFeeDays,
			Terms:         payload.Terms,
			Notes:         payload.Notes,
			EndDate:       endDate,
			ClearEndDate:  payload.ClearEndDate,
			ActorUserID:   middleware.UserIDFromContext(r.Context()),
			ActorRole:     middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, leaseResponseFromModel(updated))
	}
}

type leaseTransitionRequest struct {
	Target string  `json:"target" validate:"required"`
	Note   *string `json:"note"`
}

// LeaseTransition moves a lease to a new lifecycle status.
func LeaseTransition(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload leaseTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseLeaseStatus(strings.TrimSpace(payload.Target))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid lease status"))
			return
		}

		lease, err := svc.Transition(r.Context(), leases.TransitionInput{
			LeaseID:     id,
			Target:      target,
			Note:        payload.Note,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, leaseResponseFromModel(lease))
	}
}

type leaseTerminateRequest struct {
	TerminationDate string `json:"termination_date" validate:"required"`
	Reason          string `json:"reason" validate:"required,min=10"`
}

// LeaseTerminate ends a lease before its natural expiry.
func LeaseTerminate(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload leaseTerminateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		terminationDate, err := parseDate(payload.TerminationDate, "termination_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lease, err := svc.Terminate(r.Context(), leases.TerminateInput{
			LeaseID:         id,
			TerminationDate: terminationDate,
			Reason:          payload.Reason,
			ActorUserID:     middleware.UserIDFromContext(r.Context()),
			ActorRole:       middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, leaseResponseFromModel(lease))
	}
}

type leaseRenewRequest struct {
	StartDate  string           `json:"start_date" validate:"required"`
	EndDate    *string          `json:"end_date"`
	RentAmount *decimal.Decimal `json:"rent_amount"`
}

// LeaseRenew creates a successor lease and retires the current one.
func LeaseRenew(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload leaseRenewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		startDate, err := parseDate(payload.StartDate, "start_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		endDate, err := parseOptionalDate(payload.EndDate, "end_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		successor, err := svc.Renew(r.Context(), leases.RenewInput{
			LeaseID:     id,
			StartDate:   startDate,
			EndDate:     endDate,
			RentAmount:  payload.RentAmount,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, leaseResponseFromModel(successor))
	}
}

// LeaseDelete soft deletes a draft lease.
func LeaseDelete(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "leaseId"), "leaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Delete(r.Context(), leases.DeleteInput{
			LeaseID:     id,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "deleted"})
	}
}

// LeaseExpiring lists leases whose end date falls inside the lookahead window.
func LeaseExpiring(svc leases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days_ahead", 90, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Expiring(r.Context(), leases.ExpiringInput{
			DaysAhead:   days,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]leaseResponse, 0, len(rows))
		for i := range rows {
			items = append(items, leaseResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"leases": items})
	}
}

type leaseTenantResponse struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	IsPrimary bool      `json:"is_primary"`
}

type leaseResponse struct {
	ID              uuid.UUID             `json:"id"`
	UnitID          uuid.UUID             `json:"unit_id"`
	PropertyID      uuid.UUID             `json:"property_id"`
	LandlordID      uuid.UUID             `json:"landlord_id"`
	Type            enums.LeaseType       `json:"type"`
	Status          enums.LeaseStatus     `json:"status"`
	StartDate       string                `json:"start_date"`
	EndDate         *string               `json:"end_date,omitempty"`
	RentAmount      decimal.Decimal       `json:"rent_amount"`
	DepositAmount   decimal.Decimal       `json:"deposit_amount"`
	RentDueDay      int                   `json:"rent_due_day"`
	LateFeeAmount   *decimal.Decimal      `json:"late_fee_amount,omitempty"`
	LateFeeDays     int                   `json:"late_fee_days"`
	Terms           *string               `json:"terms,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	RenewedFromID   *uuid.UUID            `json:"renewed_from_id,omitempty"`
	TerminatedAt    *time.Time            `json:"terminated_at,omitempty"`
	TerminationNote *string               `json:"termination_note,omitempty"`
	Tenants         []leaseTenantResponse `json:"tenants,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func leaseResponseFromModel(m *models.Lease) leaseResponse {
	resp := leaseResponse{
		ID:              m.ID,
		UnitID:          m.UnitID,
		PropertyID:      m.PropertyID,
		LandlordID:      m.LandlordID,
		Type:            m.Type,
		Status:          m.Status,
		StartDate:       m.StartDate.Format(dateLayout),
		RentAmount:      m.RentAmount,
		DepositAmount:   m.DepositAmount,
		RentDueDay:      m.RentDueDay,
		LateFeeAmount:   m.LateFeeAmount,
		LateFeeDays:     m.LateFeeDays,
		Terms:           m.Terms,
		Notes:           m.Notes,
		RenewedFromID:   m.RenewedFromID,
		TerminatedAt:    m.TerminatedAt,
		TerminationNote: m.TerminationNote,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.EndDate != nil {
		formatted := m.EndDate.Format(dateLayout)
		resp.EndDate = &formatted
	}
	for _, tenant := range m.Tenants {
		resp.Tenants = append(resp.Tenants, leaseTenantResponse{
			TenantID:  tenant.TenantID,
			IsPrimary: tenant.IsPrimary,
		})
	}
	return resp
}
