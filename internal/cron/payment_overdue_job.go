package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/leaseflow/leaseflow-backend/pkg/logger"
)

type overdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// PaymentOverdueJobParams configure the overdue payment sweep.
type PaymentOverdueJobParams struct {
	Logger   *logger.Logger
	Payments overdueMarker
}

// NewPaymentOverdueJob builds the cron job that flags pending payments past
// their due date.
func NewPaymentOverdueJob(params PaymentOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	return &paymentOverdueJob{
		logg:     params.Logger,
		payments: params.Payments,
		now:      time.Now,
	}, nil
}

type paymentOverdueJob struct {
	logg     *logger.Logger
	payments overdueMarker
	now      func() time.Time
}

func (j *paymentOverdueJob) Name() string { return "payment-overdue" }

func (j *paymentOverdueJob) Run(ctx context.Context) error {
	count, err := j.payments.MarkOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("mark overdue payments: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "overdue payment sweep complete")
	return nil
}
