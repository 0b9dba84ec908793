package cron

import (
	"context"
	"fmt"

	"github.com/leaseflow/leaseflow-backend/internal/occupancy"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
)

type occupancySyncer interface {
	Sync(ctx context.Context, input occupancy.SyncInput) (*occupancy.Report, error)
}

// OccupancySyncJobParams configure the occupancy reconciliation job.
type OccupancySyncJobParams struct {
	Logger    *logger.Logger
	Occupancy occupancySyncer
}

// NewOccupancySyncJob builds the cron job that reconciles unit statuses with
// the leases that imply them.
func NewOccupancySyncJob(params OccupancySyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Occupancy == nil {
		return nil, fmt.Errorf("occupancy service required")
	}
	return &occupancySyncJob{
		logg:      params.Logger,
		occupancy: params.Occupancy,
	}, nil
}

type occupancySyncJob struct {
	logg      *logger.Logger
	occupancy occupancySyncer
}

func (j *occupancySyncJob) Name() string { return "occupancy-sync" }

func (j *occupancySyncJob) Run(ctx context.Context) error {
	report, err := j.occupancy.Sync(ctx, occupancy.SyncInput{})
	if err != nil {
		return fmt.Errorf("occupancy sync: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"marked_occupied": report.MarkedOccupied,
		"marked_vacant":   report.MarkedVacant,
	})
	j.logg.Info(logCtx, "occupancy sync complete")
	return nil
}
