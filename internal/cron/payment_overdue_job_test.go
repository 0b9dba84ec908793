package cron

import (
	"context"
	"testing"
	"time"

	"github.com/leaseflow/leaseflow-backend/pkg/logger"
)

type fakeOverdueMarker struct {
	count int64
	asOf  time.Time
}

func (f *fakeOverdueMarker) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	f.asOf = asOf
	return f.count, nil
}

func TestPaymentOverdueJob_sweepsWithCurrentTime(t *testing.T) {
	marker := &fakeOverdueMarker{count: 4}
	job, err := NewPaymentOverdueJob(PaymentOverdueJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: marker,
	})
	if err != nil {
		t.Fatalf("NewPaymentOverdueJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if marker.asOf.IsZero() {
		t.Fatal("expected sweep timestamp to be passed through")
	}
}

func TestPaymentOverdueJob_requiresDependencies(t *testing.T) {
	if _, err := NewPaymentOverdueJob(PaymentOverdueJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	}); err == nil {
		t.Fatal("expected error without payments service")
	}
}
