package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	pkgerrors "github.com/leaseflow/leaseflow-backend/pkg/errors"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

type stubAuditRepo struct {
	inserted []models.AuditLogEntry
}

func (s *stubAuditRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAuditRepo) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	s.inserted = append(s.inserted, *entry)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, params pagination.Params, filters Filters) (*EntryList, error) {
	return &EntryList{}, nil
}

func TestRecordRejectsEntryWithoutActor(t *testing.T) {
	repo := &stubAuditRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = svc.Record(context.Background(), &gorm.DB{}, Entry{
		Action:     enums.AuditActionPropertyUpdated,
		EntityType: "lease",
		EntityID:   uuid.New(),
		ActorRole:  enums.ActorRoleLandlord,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("nothing should be inserted")
	}
}

func TestRecordAcceptsSystemActorWithoutUserID(t *testing.T) {
	repo := &stubAuditRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	err = svc.Record(context.Background(), &gorm.DB{}, Entry{
		Action:     enums.AuditActionPropertyUpdated,
		EntityType: "lease",
		EntityID:   uuid.New(),
		ActorRole:  enums.ActorRoleSystem,
		Detail:     map[string]any{"status_change": "ACTIVE → EXPIRED"},
	})
	if err != nil {
		t.Fatalf("record system entry: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one row, got %d", len(repo.inserted))
	}
	if repo.inserted[0].ActorRole != enums.ActorRoleSystem {
		t.Fatalf("expected system actor, got %s", repo.inserted[0].ActorRole)
	}
}
