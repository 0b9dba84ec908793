package properties

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// UnitInput describes one unit created alongside or within a property.
type UnitInput struct {
	Label      string
	Bedrooms   int
	Bathrooms  float64
	SquareFeet *int
	MarketRent decimal.Decimal
}

// CreateInput carries the fields for a new property.
type CreateInput struct {
	Name         string
	AddressLine1 string
	AddressLine2 *string
	City         string
	Region       string
	PostalCode   string
	Country      string
	Units        []UnitInput
	ActorUserID  uuid.UUID
	ActorRole    enums.ActorRole
}

// UpdateInput carries the mutable property fields. Nil pointers leave the
// current value untouched.
type UpdateInput struct {
	PropertyID   uuid.UUID
	Name         *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	Region       *string
	PostalCode   *string
	ActorUserID  uuid.UUID
	ActorRole    enums.ActorRole
}

// DeleteInput soft-deletes a property.
type DeleteInput struct {
	PropertyID  uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// AddUnitInput appends a unit to an existing property.
type AddUnitInput struct {
	PropertyID  uuid.UUID
	Unit        UnitInput
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// UpdateUnitInput changes unit attributes or applies a manual hold status.
type UpdateUnitInput struct {
	UnitID      uuid.UUID
	MarketRent  *decimal.Decimal
	SquareFeet  *int
	Status      *enums.UnitStatus
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// Filters narrow property listings.
type Filters struct {
	LandlordID *uuid.UUID
	City       string
}

// PropertyList is one page of properties plus the cursor for the next page.
type PropertyList struct {
	Properties []models.Property
	NextCursor string
}
