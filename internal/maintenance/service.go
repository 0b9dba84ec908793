package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
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

// VendorAssignedEvent is emitted when a ticket is handed to a vendor.
type VendorAssignedEvent struct {
	TicketID   uuid.UUID `json:"ticket_id"`
	UnitID     uuid.UUID `json:"unit_id"`
	PropertyID uuid.UUID `json:"property_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	Priority   int       `json:"priority"`
}

// ticketTransitions is the allowed workflow. WAITING_VENDOR is only entered
// through AssignVendor and is deliberately absent from the Update targets.
var ticketTransitions = map[enums.TicketStatus][]enums.TicketStatus{
	enums.TicketStatusOpen:          {enums.TicketStatusWaitingVendor, enums.TicketStatusCancelled},
	enums.TicketStatusWaitingVendor: {enums.TicketStatusInProgress, enums.TicketStatusOpen, enums.TicketStatusCancelled},
	enums.TicketStatusInProgress:    {enums.TicketStatusWaitingParts, enums.TicketStatusScheduled, enums.TicketStatusCompleted, enums.TicketStatusCancelled},
	enums.TicketStatusWaitingParts:  {enums.TicketStatusInProgress, enums.TicketStatusScheduled, enums.TicketStatusCancelled},
	enums.TicketStatusScheduled:     {enums.TicketStatusInProgress, enums.TicketStatusCompleted, enums.TicketStatusCancelled},
}

func canTransitionTicket(from, to enums.TicketStatus) bool {
	for _, allowed := range ticketTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Service defines maintenance ticket operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.MaintenanceTicket, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MaintenanceTicket, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*TicketList, error)
	AssignVendor(ctx context.Context, input AssignVendorInput) (*models.MaintenanceTicket, error)
	RespondToAssignment(ctx context.Context, input RespondInput) (*models.MaintenanceTicket, error)
	Update(ctx context.Context, input UpdateInput) (*models.MaintenanceTicket, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	audit  audit.Service
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a maintenance service with the required dependencies.
func NewService(repo Repository, tx txRunner, auditSvc audit.Service, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("maintenance repository required")
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

func (s *service) Create(ctx context.Context, input CreateInput) (*models.MaintenanceTicket, error) {
	if input.UnitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}
	priority := input.Priority
	if priority == 0 {
		priority = 3
	}
	if priority < 1 || priority > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "priority must be between 1 and 5")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var created *models.MaintenanceTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		propertyID, landlordID, err := repo.FindUnitOwner(ctx, input.UnitID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
		}

		ticket := &models.MaintenanceTicket{
			UnitID:       input.UnitID,
			PropertyID:   propertyID,
			ReportedByID: input.ActorUserID,
			LandlordID:   landlordID,
			Title:        strings.TrimSpace(input.Title),
			Description:  strings.TrimSpace(input.Description),
			Priority:     priority,
			Status:       enums.TicketStatusOpen,
		}
		if _, err := repo.Create(ctx, ticket); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ticket")
		}
		created = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.MaintenanceTicket, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	ticket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return ticket, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*TicketList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return list, nil
}

func (s *service) AssignVendor(ctx context.Context, input AssignVendorInput) (*models.MaintenanceTicket, error) {
	if input.TicketID == uuid.Nil || input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id and vendor id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.EstimatedCost != nil && input.EstimatedCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated cost cannot be negative")
	}

	var assigned *models.MaintenanceTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket, err := s.lockTicket(ctx, repo, input.TicketID)
		if err != nil {
			return err
		}
		if err := authorizeLandlord(ticket, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		// Reassignment is allowed anywhere short of a closed ticket: the
		// landlord can hand the work to a different vendor mid-flight.
		if ticket.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
		}

		vendor, err := repo.FindUser(ctx, input.VendorID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}
		if vendor.Role != enums.ActorRoleVendor || !vendor.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "assignee must be an active vendor")
		}

		now := s.now()
		updates := map[string]any{
			"status":              enums.TicketStatusWaitingVendor,
			"assigned_vendor_id":  input.VendorID,
			"assigned_at":         now,
			"vendor_responded_at": nil,
		}
		if input.EstimatedCost != nil {
			updates["estimated_cost"] = *input.EstimatedCost
		}
		if err := repo.Update(ctx, ticket.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionTicketVendorAssigned,
			EntityType:  "maintenance_ticket",
			EntityID:    ticket.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail:      map[string]any{"vendor_id": input.VendorID},
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTicketAssigned,
			AggregateType: enums.AggregateTicket,
			AggregateID:   ticket.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()},
			Data: VendorAssignedEvent{
				TicketID:   ticket.ID,
				UnitID:     ticket.UnitID,
				PropertyID: ticket.PropertyID,
				VendorID:   input.VendorID,
				Priority:   ticket.Priority,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit vendor assigned")
		}

		assigned, err = repo.FindByID(ctx, ticket.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ticket")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// RespondToAssignment records the vendor's answer. Accepting starts the work;
// declining returns the ticket to the open pool with the vendor cleared.
func (s *service) RespondToAssignment(ctx context.Context, input RespondInput) (*models.MaintenanceTicket, error) {
	if input.TicketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.EstimatedCost != nil && input.EstimatedCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated cost cannot be negative")
	}

	var responded *models.MaintenanceTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket, err := s.lockTicket(ctx, repo, input.TicketID)
		if err != nil {
			return err
		}
		if ticket.Status != enums.TicketStatusWaitingVendor {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is not awaiting a vendor response")
		}
		if ticket.AssignedVendorID == nil || *ticket.AssignedVendorID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "ticket is not assigned to this vendor")
		}

		now := s.now()
		var updates map[string]any
		if input.Accept {
			updates = map[string]any{
				"status":              enums.TicketStatusInProgress,
				"vendor_responded_at": now,
			}
			if input.EstimatedCost != nil {
				updates["estimated_cost"] = *input.EstimatedCost
			}
			if input.Note != nil {
				updates["vendor_notes"] = *input.Note
			}
		} else {
			updates = map[string]any{
				"status":              enums.TicketStatusOpen,
				"assigned_vendor_id":  nil,
				"assigned_at":         nil,
				"vendor_responded_at": nil,
			}
			if input.Note != nil {
				updates["decline_reason"] = *input.Note
			}
		}
		if err := repo.Update(ctx, ticket.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket")
		}

		detail := map[string]any{"accepted": input.Accept}
		if input.Note != nil {
			detail["note"] = *input.Note
		}
		entry := audit.Entry{
			Action:      enums.AuditActionTicketVendorResponse,
			EntityType:  "maintenance_ticket",
			EntityID:    ticket.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail:      detail,
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		responded, err = repo.FindByID(ctx, ticket.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ticket")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responded, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.MaintenanceTicket, error) {
	if input.TicketID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket status")
	}
	if input.Status != nil && *input.Status == enums.TicketStatusWaitingVendor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use vendor assignment to hand a ticket to a vendor")
	}
	if input.Priority != nil && (*input.Priority < 1 || *input.Priority > 5) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "priority must be between 1 and 5")
	}

	var updated *models.MaintenanceTicket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ticket, err := s.lockTicket(ctx, repo, input.TicketID)
		if err != nil {
			return err
		}
		if err := authorizeUpdate(ticket, input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		if ticket.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "ticket is closed")
		}

		updates := map[string]any{}
		changed := map[string]any{}

		if input.Status != nil && *input.Status != ticket.Status {
			if !canTransitionTicket(ticket.Status, *input.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot move ticket from %s to %s", ticket.Status, *input.Status))
			}
			if *input.Status == enums.TicketStatusScheduled && input.ScheduledFor == nil && ticket.ScheduledFor == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "scheduled date required to schedule a ticket")
			}
			updates["status"] = *input.Status
			changed["status"] = *input.Status
			switch *input.Status {
			case enums.TicketStatusCompleted:
				updates["completed_at"] = s.now()
			case enums.TicketStatusOpen:
				updates["assigned_vendor_id"] = nil
				updates["assigned_at"] = nil
				updates["vendor_responded_at"] = nil
			}
		}
		if input.Priority != nil && *input.Priority != ticket.Priority {
			updates["priority"] = *input.Priority
			changed["priority"] = *input.Priority
		}
		if input.EstimatedCost != nil {
			updates["estimated_cost"] = *input.EstimatedCost
			changed["estimated_cost"] = *input.EstimatedCost
		}
		if input.ActualCost != nil {
			updates["actual_cost"] = *input.ActualCost
			changed["actual_cost"] = *input.ActualCost
		}
		if input.ScheduledFor != nil {
			updates["scheduled_for"] = *input.ScheduledFor
			changed["scheduled_for"] = input.ScheduledFor.Format(time.RFC3339)
		}
		if len(updates) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
		}

		if err := repo.Update(ctx, ticket.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ticket")
		}

		entry := audit.Entry{
			Action:      enums.AuditActionTicketUpdated,
			EntityType:  "maintenance_ticket",
			EntityID:    ticket.ID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
			Detail:      changed,
		}
		if err := s.audit.Record(ctx, tx, entry); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, ticket.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload ticket")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) lockTicket(ctx context.Context, repo Repository, id uuid.UUID) (*models.MaintenanceTicket, error) {
	ticket, err := repo.LockByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock ticket")
	}
	return ticket, nil
}

func authorizeLandlord(ticket *models.MaintenanceTicket, actorUserID uuid.UUID, role enums.ActorRole) error {
	if role == enums.ActorRoleAdmin {
		return nil
	}
	if ticket.LandlordID != actorUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "ticket does not belong to landlord")
	}
	return nil
}

// authorizeUpdate admits the landlord, an admin, or the assigned vendor.
func authorizeUpdate(ticket *models.MaintenanceTicket, actorUserID uuid.UUID, role enums.ActorRole) error {
	if role == enums.ActorRoleAdmin {
		return nil
	}
	if ticket.LandlordID == actorUserID {
		return nil
	}
	if ticket.AssignedVendorID != nil && *ticket.AssignedVendorID == actorUserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to update this ticket")
}
