package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseflow/leaseflow-backend/api/middleware"
	"github.com/leaseflow/leaseflow-backend/internal/payments"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
	"github.com/leaseflow/leaseflow-backend/pkg/pagination"
)

func TestPaymentConfirmCash(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	landlordID := uuid.New()
	paymentID := uuid.New()

	makeRequest := func(ctx context.Context, rawID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+rawID+"/confirm-cash", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("paymentId", rawID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		stub := &stubPaymentService{confirmed: confirmedPayment(paymentID, landlordID)}
		PaymentConfirmCash(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("invalid payment id", func(t *testing.T) {
		ctx := middleware.WithIdentity(context.Background(), landlordID, enums.ActorRoleLandlord)
		rec := makeRequest(ctx, "not-a-uuid")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctx := middleware.WithIdentity(context.Background(), landlordID, enums.ActorRoleLandlord)
		rec := makeRequest(ctx, paymentID.String())
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on success, got %d: %s", rec.Code, rec.Body.String())
		}

		var envelope struct {
			Success bool            `json:"success"`
			Data    paymentResponse `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !envelope.Success {
			t.Fatalf("expected success envelope")
		}
		if envelope.Data.Status != enums.PaymentStatusCompleted {
			t.Fatalf("expected COMPLETED, got %s", envelope.Data.Status)
		}
		if envelope.Data.ReceiptNumber == nil {
			t.Fatalf("expected a receipt number in the response")
		}
	})
}

func TestPaymentRejectCashRequiresReason(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	landlordID := uuid.New()
	paymentID := uuid.New()

	body := strings.NewReader(`{"reason":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+paymentID.String()+"/reject-cash", body)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("paymentId", paymentID.String())
	ctx := middleware.WithIdentity(context.Background(), landlordID, enums.ActorRoleLandlord)
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	stub := &stubPaymentService{}
	PaymentRejectCash(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty reason, got %d", rec.Code)
	}
	if stub.rejectCalled {
		t.Fatalf("expected RejectCash not to be invoked")
	}
}

func confirmedPayment(paymentID, landlordID uuid.UUID) *models.Payment {
	method := enums.PaymentMethodCash
	receipt := "RCPT-20260115-ABCDEF12"
	now := time.Now()
	return &models.Payment{
		ID:            paymentID,
		LeaseID:       uuid.New(),
		TenantID:      uuid.New(),
		LandlordID:    landlordID,
		Amount:        decimal.NewFromInt(1200),
		DueDate:       now,
		PeriodStart:   now,
		PeriodEnd:     now.AddDate(0, 1, 0),
		Status:        enums.PaymentStatusCompleted,
		Method:        &method,
		ReceiptNumber: &receipt,
		ConfirmedAt:   &now,
	}
}

type stubPaymentService struct {
	confirmed    *models.Payment
	rejectCalled bool
}

func (s *stubPaymentService) Create(ctx context.Context, input payments.CreateInput) (*models.Payment, error) {
	panic("unimplemented")
}

func (s *stubPaymentService) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	panic("unimplemented")
}

func (s *stubPaymentService) List(ctx context.Context, params pagination.Params, filters payments.Filters) (*payments.PaymentList, error) {
	panic("unimplemented")
}

func (s *stubPaymentService) ClaimCash(ctx context.Context, input payments.ClaimInput) (*models.Payment, error) {
	panic("unimplemented")
}

func (s *stubPaymentService) ConfirmCash(ctx context.Context, input payments.ConfirmInput) (*models.Payment, error) {
	return s.confirmed, nil
}

func (s *stubPaymentService) RejectCash(ctx context.Context, input payments.RejectInput) (*models.Payment, error) {
	s.rejectCalled = true
	return nil, nil
}

func (s *stubPaymentService) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	panic("unimplemented")
}
