package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/leaseflow/leaseflow-backend/api/responses"
	"github.com/leaseflow/leaseflow-backend/api/validators"
	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/internal/occupancy"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

// AuditList returns a cursor-paginated slice of the audit log.
func AuditList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := audit.Filters{
			EntityType: strings.TrimSpace(r.URL.Query().Get("entity_type")),
		}
		if filters.EntityID, err = validators.ParseQueryUUID(r, "entity_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.ActorUserID, err = validators.ParseQueryUUID(r, "actor_user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
			action, parseErr := enums.ParseAuditAction(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid audit action"))
				return
			}
			filters.Action = &action
		}

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]auditEntryResponse, 0, len(list.Entries))
		for i := range list.Entries {
			items = append(items, auditEntryResponseFromModel(&list.Entries[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"entries":     items,
			"next_cursor": list.NextCursor,
		})
	}
}

// OccupancyProject computes what a unit's status should be without writing.
func OccupancyProject(svc occupancy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := validators.ParsePathUUID(chi.URLParam(r, "unitId"), "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.ProjectUnit(r.Context(), unitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"unit_id":          unitID,
			"projected_status": status,
		})
	}
}

type occupancySyncRequest struct {
	PropertyID *string `json:"property_id" validate:"omitempty,uuid"`
}

// OccupancySync reconciles stored unit statuses against lease-derived state.
func OccupancySync(svc occupancy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// An empty body means a full sweep.
		var payload occupancySyncRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		var propertyID *uuid.UUID
		if payload.PropertyID != nil {
			parsed, parseErr := uuid.Parse(strings.TrimSpace(*payload.PropertyID))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid property_id"))
				return
			}
			propertyID = &parsed
		}

		report, err := svc.Sync(r.Context(), occupancy.SyncInput{
			PropertyID: propertyID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

type auditEntryResponse struct {
	ID          uuid.UUID         `json:"id"`
	Action      enums.AuditAction `json:"action"`
	EntityType  string            `json:"entity_type"`
	EntityID    uuid.UUID         `json:"entity_id"`
	ActorUserID uuid.UUID         `json:"actor_user_id"`
	ActorRole   enums.ActorRole   `json:"actor_role"`
	Detail      json.RawMessage   `json:"detail,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func auditEntryResponseFromModel(m *models.AuditLogEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:          m.ID,
		Action:      m.Action,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		ActorUserID: m.ActorUserID,
		ActorRole:   m.ActorRole,
		Detail:      m.Detail,
		CreatedAt:   m.CreatedAt,
	}
}
