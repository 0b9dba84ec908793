package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leaseflow/leaseflow-backend/internal/audit"
	"github.com/leaseflow/leaseflow-backend/internal/leases"
	"github.com/leaseflow/leaseflow-backend/internal/maintenance"
	"github.com/leaseflow/leaseflow-backend/internal/occupancy"
	"github.com/leaseflow/leaseflow-backend/internal/payments"
	"github.com/leaseflow/leaseflow-backend/internal/properties"
	pkgAuth "github.com/leaseflow/leaseflow-backend/pkg/auth"
	"github.com/leaseflow/leaseflow-backend/pkg/config"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
	"gorm.io/gorm"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubPropertiesService struct{}

func (stubPropertiesService) Create(ctx context.Context, input properties.CreateInput) (*models.Property, error) {
	panic("unimplemented")
}

func (stubPropertiesService) Get(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	panic("unimplemented")
}

func (stubPropertiesService) List(ctx context.Context, params pagination.Params, filters properties.Filters) (*properties.PropertyList, error) {
	return &properties.PropertyList{}, nil
}

func (stubPropertiesService) Update(ctx context.Context, input properties.UpdateInput) (*models.Property, error) {
	panic("unimplemented")
}

func (stubPropertiesService) Delete(ctx context.Context, input properties.DeleteInput) error {
	panic("unimplemented")
}

func (stubPropertiesService) AddUnit(ctx context.Context, input properties.AddUnitInput) (*models.Unit, error) {
	panic("unimplemented")
}

func (stubPropertiesService) UpdateUnit(ctx context.Context, input properties.UpdateUnitInput) (*models.Unit, error) {
	panic("unimplemented")
}

func (stubPropertiesService) ListVacantUnits(ctx context.Context, landlordID *uuid.UUID) ([]models.Unit, error) {
	return nil, nil
}

type stubLeasesService struct{}

func (stubLeasesService) Create(ctx context.Context, input leases.CreateInput) (*models.Lease, error) {
	panic("unimplemented")
}

func (stubLeasesService) Get(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	panic("unimplemented")
}

func (stubLeasesService) List(ctx context.Context, params pagination.Params, filters leases.Filters) (*leases.LeaseList, error) {
	return &leases.LeaseList{}, nil
}

func (stubLeasesService) Update(ctx context.Context, input leases.UpdateInput) (*models.Lease, error) {
	panic("unimplemented")
}

func (stubLeasesService) Transition(ctx context.Context, input leases.TransitionInput) (*models.Lease, error) {
	panic("unimplemented")
}

func (stubLeasesService) Terminate(ctx context.Context, input leases.TerminateInput) (*models.Lease, error) {
	panic("unimplemented")
}

func (stubLeasesService) Renew(ctx context.Context, input leases.RenewInput) (*models.Lease, error) {
	panic("unimplemented")
}

func (stubLeasesService) Delete(ctx context.Context, input leases.DeleteInput) error {
	panic("unimplemented")
}

func (stubLeasesService) Expiring(ctx context.Context, input leases.ExpiringInput) ([]models.Lease, error) {
	return []models.Lease{}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Create(ctx context.Context, input payments.CreateInput) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (stubPaymentsService) List(ctx context.Context, params pagination.Params, filters payments.Filters) (*payments.PaymentList, error) {
	return &payments.PaymentList{}, nil
}

func (stubPaymentsService) ClaimCash(ctx context.Context, input payments.ClaimInput) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) ConfirmCash(ctx context.Context, input payments.ConfirmInput) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) RejectCash(ctx context.Context, input payments.RejectInput) (*models.Payment, error) {
	panic("unimplemented")
}

func (stubPaymentsService) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return 0, nil
}

type stubMaintenanceService struct{}

func (stubMaintenanceService) Create(ctx context.Context, input maintenance.CreateInput) (*models.MaintenanceTicket, error) {
	panic("unimplemented")
}

func (stubMaintenanceService) Get(ctx context.Context, id uuid.UUID) (*models.MaintenanceTicket, error) {
	panic("unimplemented")
}

func (stubMaintenanceService) List(ctx context.Context, params pagination.Params, filters maintenance.Filters) (*maintenance.TicketList, error) {
	return &maintenance.TicketList{}, nil
}

func (stubMaintenanceService) AssignVendor(ctx context.Context, input maintenance.AssignVendorInput) (*models.MaintenanceTicket, error) {
	panic("unimplemented")
}

func (stubMaintenanceService) RespondToAssignment(ctx context.Context, input maintenance.RespondInput) (*models.MaintenanceTicket, error) {
	panic("unimplemented")
}

func (stubMaintenanceService) Update(ctx context.Context, input maintenance.UpdateInput) (*models.MaintenanceTicket, error) {
	panic("unimplemented")
}

type stubOccupancyService struct{}

func (stubOccupancyService) ProjectUnit(ctx context.Context, unitID uuid.UUID) (enums.UnitStatus, error) {
	return enums.UnitStatusVacant, nil
}

func (stubOccupancyService) Sync(ctx context.Context, input occupancy.SyncInput) (*occupancy.Report, error) {
	return &occupancy.Report{}, nil
}

type stubAuditService struct{}

func (stubAuditService) Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	return nil
}

func (stubAuditService) List(ctx context.Context, params pagination.Params, filters audit.Filters) (*audit.EntryList, error) {
	return &audit.EntryList{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, nil, Services{
		Properties:  stubPropertiesService{},
		Leases:      stubLeasesService{},
		Payments:    stubPaymentsService{},
		Maintenance: stubMaintenanceService{},
		Occupancy:   stubOccupancyService{},
		Audit:       stubAuditService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leases", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leases", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleLandlord))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for lease list got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-log", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleTenant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-log", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestVendorRespondRequiresVendorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	ticketID := uuid.NewString()
	nonVendor := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance-tickets/"+ticketID+"/respond", nil)
	nonVendor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleTenant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonVendor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-vendor respond got %d", resp.Code)
	}
}

func TestLeaseMutationsRequireLandlordRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leases", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleTenant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for tenant lease create got %d", resp.Code)
	}
}
