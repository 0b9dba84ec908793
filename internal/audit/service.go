package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

// Entry captures one audit event to append. Detail is marshalled to JSON.
type Entry struct {
	Action      enums.AuditAction
	EntityType  string
	EntityID    uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
	Detail      any
}

// Service appends and lists audit log entries. Entries written via Record
// share the caller's transaction, so an aborted mutation leaves no trace.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, params pagination.Params, filters Filters) (*EntryList, error)
}

type service struct {
	repo Repository
}

// NewService builds the audit service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for audit append")
	}
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid audit action")
	}
	if entry.EntityType == "" || entry.EntityID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit entity reference required")
	}
	// Background jobs audit as the system actor and carry no user id.
	if entry.ActorUserID == uuid.Nil && entry.ActorRole != enums.ActorRoleSystem {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit actor required")
	}

	var detail json.RawMessage
	if entry.Detail != nil {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal audit detail")
		}
		detail = raw
	}

	row := models.AuditLogEntry{
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		ActorUserID: entry.ActorUserID,
		ActorRole:   entry.ActorRole,
		Detail:      detail,
	}
	if err := s.repo.WithTx(tx).Insert(ctx, &row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*EntryList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return list, nil
}
