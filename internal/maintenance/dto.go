package maintenance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
)

// CreateInput opens a new maintenance ticket against a unit.
type CreateInput struct {
	UnitID      uuid.UUID
	Title       string
	Description string
	Priority    int
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// AssignVendorInput hands an open ticket to a vendor.
type AssignVendorInput struct {
	TicketID      uuid.UUID
	VendorID      uuid.UUID
	EstimatedCost *decimal.Decimal
	ActorUserID   uuid.UUID
	ActorRole     enums.ActorRole
}

// RespondInput is the vendor accepting or declining an assignment. The note
// lands on the ticket: vendor_notes on accept, decline_reason on decline.
type RespondInput struct {
	TicketID      uuid.UUID
	Accept        bool
	EstimatedCost *decimal.Decimal
	Note          *string
	ActorUserID   uuid.UUID
	ActorRole     enums.ActorRole
}

// UpdateInput moves a ticket through its workflow and records costs.
type UpdateInput struct {
	TicketID      uuid.UUID
	Status        *enums.TicketStatus
	Priority      *int
	EstimatedCost *decimal.Decimal
	ActualCost    *decimal.Decimal
	ScheduledFor  *time.Time
	ActorUserID   uuid.UUID
	ActorRole     enums.ActorRole
}

// Filters narrow ticket listings.
type Filters struct {
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	LandlordID *uuid.UUID
	VendorID   *uuid.UUID
	Status     *enums.TicketStatus
}

// TicketList is one page of tickets plus the cursor for the next page.
type TicketList struct {
	Tickets    []models.MaintenanceTicket
	NextCursor string
}
