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
	"github.com/leaseflow/leaseflow-backend/internal/properties"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

type unitRequest struct {
	Label      string          `json:"label" validate:"required,min=1,max=32"`
	Bedrooms   int             `json:"bedrooms" validate:"min=0,max=20"`
	Bathrooms  float64         `json:"bathrooms" validate:"min=0,max=20"`
	SquareFeet *int            `json:"square_feet"`
	MarketRent decimal.Decimal `json:"market_rent"`
}

func (r unitRequest) toInput() properties.UnitInput {
	return properties.UnitInput{
		Label:      strings.TrimSpace(r.Label),
		Bedrooms:   r.Bedrooms,
		Bathrooms:  r.Bathrooms,
		SquareFeet: r.SquareFeet,
		MarketRent: r.MarketRent,
	}
}

type propertyCreateRequest struct {
	Name         string        `json:"name" validate:"required,min=1,max=120"`
	AddressLine1 string        `json:"address_line1" validate:"required"`
	AddressLine2 *string       `json:"address_line2"`
	City         string        `json:"city" validate:"required"`
	Region       string        `json:"region" validate:"required"`
	PostalCode   string        `json:"postal_code" validate:"required"`
	Country      string        `json:"country"`
	Units        []unitRequest `json:"units" validate:"dive"`
}

// PropertyCreate registers a property, optionally with its initial units.
func PropertyCreate(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload propertyCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		units := make([]properties.UnitInput, 0, len(payload.Units))
		for _, unit := range payload.Units {
			units = append(units, unit.toInput())
		}

		created, err := svc.Create(r.Context(), properties.CreateInput{
			Name:         strings.TrimSpace(payload.Name),
			AddressLine1: strings.TrimSpace(payload.AddressLine1),
			AddressLine2: payload.AddressLine2,
			City:         strings.TrimSpace(payload.City),
			Region:       strings.TrimSpace(payload.Region),
			PostalCode:   strings.TrimSpace(payload.PostalCode),
			Country:      strings.TrimSpace(payload.Country),
			Units:        units,
			ActorUserID:  middleware.UserIDFromContext(r.Context()),
			ActorRole:    middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, propertyResponseFromModel(created))
	}
}

// PropertyGet returns one property with its units.
func PropertyGet(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		property, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, propertyResponseFromModel(property))
	}
}

// PropertyList returns a cursor-paginated page of properties.
func PropertyList(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := properties.Filters{
			City: strings.TrimSpace(r.URL.Query().Get("city")),
		}
		// Landlords only see their own portfolio.
		if middleware.RoleFromContext(r.Context()) == enums.ActorRoleLandlord {
			actorID := middleware.UserIDFromContext(r.Context())
			filters.LandlordID = &actorID
		} else if filters.LandlordID, err = validators.ParseQueryUUID(r, "landlord_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]propertyResponse, 0, len(list.Properties))
		for i := range list.Properties {
			items = append(items, propertyResponseFromModel(&list.Properties[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"properties":  items,
			"next_cursor": list.NextCursor,
		})
	}
}

type propertyUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=120"`
	AddressLine1 *string `json:"address_line1" validate:"omitempty,min=1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city" validate:"omitempty,min=1"`
	Region       *string `json:"region" validate:"omitempty,min=1"`
	PostalCode   *string `json:"postal_code" validate:"omitempty,min=1"`
}

// PropertyUpdate changes property attributes.
func PropertyUpdate(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload propertyUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), properties.UpdateInput{
			PropertyID:   id,
			Name:         payload.Name,
			AddressLine1: payload.AddressLine1,
			AddressLine2: payload.AddressLine2,
			City:         payload.City,
			Region:       payload.Region,
			PostalCode:   payload.PostalCode,
			ActorUserID:  middleware.UserIDFromContext(r.Context()),
			ActorRole:    middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, propertyResponseFromModel(updated))
	}
}

// PropertyDelete soft-deletes a property with no active leases.
func PropertyDelete(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), properties.DeleteInput{
			PropertyID:  id,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// UnitAdd appends a unit to an existing property.
func UnitAdd(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload unitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := svc.AddUnit(r.Context(), properties.AddUnitInput{
			PropertyID:  propertyID,
			Unit:        payload.toInput(),
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, unitResponseFromModel(unit))
	}
}

type unitUpdateRequest struct {
	MarketRent *decimal.Decimal `json:"market_rent"`
	SquareFeet *int             `json:"square_feet"`
	Status     *string          `json:"status"`
}

// UnitUpdate changes unit attributes or applies a manual hold status.
func UnitUpdate(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := validators.ParsePathUUID(chi.URLParam(r, "unitId"), "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload unitUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.UnitStatus
		if payload.Status != nil {
			parsed, parseErr := enums.ParseUnitStatus(strings.TrimSpace(*payload.Status))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit status"))
				return
			}
			status = &parsed
		}

		unit, err := svc.UpdateUnit(r.Context(), properties.UpdateUnitInput{
			UnitID:      unitID,
			MarketRent:  payload.MarketRent,
			SquareFeet:  payload.SquareFeet,
			Status:      status,
			ActorUserID: middleware.UserIDFromContext(r.Context()),
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unitResponseFromModel(unit))
	}
}

// UnitListVacant returns the vacant units visible to the caller.
func UnitListVacant(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var landlordID *uuid.UUID
		if middleware.RoleFromContext(r.Context()) == enums.ActorRoleLandlord {
			actorID := middleware.UserIDFromContext(r.Context())
			landlordID = &actorID
		} else {
			var err error
			if landlordID, err = validators.ParseQueryUUID(r, "landlord_id"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		units, err := svc.ListVacantUnits(r.Context(), landlordID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]unitResponse, 0, len(units))
		for i := range units {
			items = append(items, unitResponseFromModel(&units[i]))
		}
		responses.WriteSuccess(w, map[string]any{"units": items})
	}
}

type unitResponse struct {
	ID         uuid.UUID        `json:"id"`
	PropertyID uuid.UUID        `json:"property_id"`
	Label      string           `json:"label"`
	Bedrooms   int              `json:"bedrooms"`
	Bathrooms  float64          `json:"bathrooms"`
	SquareFeet *int             `json:"square_feet,omitempty"`
	MarketRent decimal.Decimal  `json:"market_rent"`
	Status     enums.UnitStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func unitResponseFromModel(m *models.Unit) unitResponse {
	return unitResponse{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		Label:      m.Label,
		Bedrooms:   m.Bedrooms,
		Bathrooms:  m.Bathrooms,
		SquareFeet: m.SquareFeet,
		MarketRent: m.MarketRent,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type propertyResponse struct {
	ID            uuid.UUID      `json:"id"`
	LandlordID    uuid.UUID      `json:"landlord_id"`
	Name          string         `json:"name"`
	AddressLine1  string         `json:"address_line1"`
	AddressLine2  *string        `json:"address_line2,omitempty"`
	City          string         `json:"city"`
	Region        string         `json:"region"`
	PostalCode    string         `json:"postal_code"`
	Country       string         `json:"country"`
	OccupiedCount int            `json:"occupied_count"`
	VacantCount   int            `json:"vacant_count"`
	Units         []unitResponse `json:"units,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func propertyResponseFromModel(m *models.Property) propertyResponse {
	resp := propertyResponse{
		ID:            m.ID,
		LandlordID:    m.LandlordID,
		Name:          m.Name,
		AddressLine1:  m.AddressLine1,
		AddressLine2:  m.AddressLine2,
		City:          m.City,
		Region:        m.Region,
		PostalCode:    m.PostalCode,
		Country:       m.Country,
		OccupiedCount: m.OccupiedCount,
		VacantCount:   m.VacantCount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for i := range m.Units {
		resp.Units = append(resp.Units, unitResponseFromModel(&m.Units[i]))
	}
	return resp
}
