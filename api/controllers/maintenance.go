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
	"github.com/leaseflow/leaseflow-backend/internal/maintenance"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

type ticketCreateRequest struct {
	UnitID      string `json:"unit_id" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1"`
	Priority    int    `json:"priority" validate:"omitempty,min=1,max=5"`
}

// TicketCreate opens a maintenance ticket against a unit.
func TicketCreate(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ticketCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitID, err := uuid.Parse(strings.TrimSpace(payload.UnitID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit_id"))
			return
		}

		created, err := svc.Create(r.Context(), maintenance.CreateInput{
			UnitID:      unitID,
			Title:       strings.TrimSpace(payload.Title),
			Description: strings.TrimSpace(payload.Description),
			Priority:    payload.Priority,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ticketResponseFromModel(created))
	}
}

// TicketGet returns one ticket by id.
func TicketGet(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "ticketId"), "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(ticket))
	}
}

// TicketList returns a cursor-paginated page of tickets.
func TicketList(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := maintenance.Filters{}
		if filters.PropertyID, err = validators.ParseQueryUUID(r, "property_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.UnitID, err = validators.ParseQueryUUID(r, "unit_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseTicketStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status"))
				return
			}
			filters.Status = &status
		}
		// Landlords see their portfolio, vendors see their assignments.
		actorID := middleware.UserIDFromContext(r.Context())
		switch middleware.RoleFromContext(r.Context()) {
		case enums.ActorRoleLandlord:
			filters.LandlordID = &actorID
		case enums.ActorRoleVendor:
			filters.VendorID = &actorID
		}

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]ticketResponse, 0, len(list.Tickets))
		for i := range list.Tickets {
			items = append(items, ticketResponseFromModel(&list.Tickets[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"tickets":     items,
			"next_cursor": list.NextCursor,
		})
	}
}

type ticketAssignRequest struct {
	VendorID      string           `json:"vendor_id" validate:"required,uuid"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
}

// TicketAssignVendor hands an open ticket to a vendor.
func TicketAssignVendor(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "ticketId"), "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ticketAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id"))
			return
		}

		ticket, err := svc.AssignVendor(r.Context(), maintenance.AssignVendorInput{
			TicketID:      id,
			VendorID:      vendorID,
			EstimatedCost: payload.EstimatedCost,
			ActorUserID:   middleware.UserIDFromContext(r.Context()),
			ActorRole:     middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(ticket))
	}
}

type ticketRespondRequest struct {
	Accept        bool             `json:"accept"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
	Note          *string          `json:"note"`
}

// TicketRespond records the assigned vendor accepting or declining.
func TicketRespond(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "ticketId"), "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ticketRespondRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := svc.RespondToAssignment(r.Context(), maintenance.RespondInput{
			TicketID:      id,
			Accept:        payload.Accept,
			EstimatedCost: payload.EstimatedCost,
			Note:          payload.Note,
			ActorUserID:   middleware.UserIDFromContext(r.Context()),
			ActorRole:     middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(ticket))
	}
}

type ticketUpdateRequest struct {
	Status        *string          `json:"status"`
	Priority      *int             `json:"priority" validate:"omitempty,min=1,max=5"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost"`
	ActualCost    *decimal.Decimal `json:"actual_cost"`
	ScheduledFor  *time.Time       `json:"scheduled_for"`
}

// TicketUpdate moves a ticket through its workflow and records costs.
func TicketUpdate(svc maintenance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "ticketId"), "ticketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ticketUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.TicketStatus
		if payload.Status != nil {
			parsed, parseErr := enums.ParseTicketStatus(strings.TrimSpace(*payload.Status))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status"))
				return
			}
			status = &parsed
		}

		ticket, err := svc.Update(r.Context(), maintenance.UpdateInput{
			TicketID:      id,
			Status:        status,
			Priority:      payload.Priority,
			EstimatedCost: payload.EstimatedCost,
			ActualCost:    payload.ActualCost,
			ScheduledFor:  payload.ScheduledFor,
			ActorUserID:   middleware.UserIDFromContext(r.Context()),
			ActorRole:     middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticketResponseFromModel(ticket))
	}
}

type ticketResponse struct {
	ID                uuid.UUID          `json:"id"`
	UnitID            uuid.UUID          `json:"unit_id"`
	PropertyID        uuid.UUID          `json:"property_id"`
	ReportedByID      uuid.UUID          `json:"reported_by_id"`
	LandlordID        uuid.UUID          `json:"landlord_id"`
	AssignedVendorID  *uuid.UUID         `json:"assigned_vendor_id,omitempty"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Priority          int                `json:"priority"`
	Status            enums.TicketStatus `json:"status"`
	EstimatedCost     *decimal.Decimal   `json:"estimated_cost,omitempty"`
	ActualCost        *decimal.Decimal   `json:"actual_cost,omitempty"`
	VendorNotes       *string            `json:"vendor_notes,omitempty"`
	DeclineReason     *string            `json:"decline_reason,omitempty"`
	AssignedAt        *time.Time         `json:"assigned_at,omitempty"`
	VendorRespondedAt *time.Time         `json:"vendor_responded_at,omitempty"`
	ScheduledFor      *time.Time         `json:"scheduled_for,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func ticketResponseFromModel(m *models.MaintenanceTicket) ticketResponse {
	return ticketResponse{
		ID:                m.ID,
		UnitID:            m.UnitID,
		PropertyID:        m.PropertyID,
		ReportedByID:      m.ReportedByID,
		LandlordID:        m.LandlordID,
		AssignedVendorID:  m.AssignedVendorID,
		Title:             m.Title,
		Description:       m.Description,
		Priority:          m.Priority,
		Status:            m.Status,
		EstimatedCost:     m.EstimatedCost,
		ActualCost:        m.ActualCost,
		VendorNotes:       m.VendorNotes,
		DeclineReason:     m.DeclineReason,
		AssignedAt:        m.AssignedAt,
		VendorRespondedAt: m.VendorRespondedAt,
		ScheduledFor:      m.ScheduledFor,
		CompletedAt:       m.CompletedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}
