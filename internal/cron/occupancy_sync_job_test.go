package cron

import (
	"context"
	"testing"

	"github.com/leaseflow/leaseflow-backend/internal/occupancy"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
)

type fakeOccupancySyncer struct {
	report occupancy.Report
	inputs []occupancy.SyncInput
}

func (f *fakeOccupancySyncer) Sync(ctx context.Context, input occupancy.SyncInput) (*occupancy.Report, error) {
	f.inputs = append(f.inputs, input)
	report := f.report
	return &report, nil
}

func TestOccupancySyncJob_runsUnscopedSweep(t *testing.T) {
	syncer := &fakeOccupancySyncer{report: occupancy.Report{MarkedOccupied: 2, MarkedVacant: 1}}
	job, err := NewOccupancySyncJob(OccupancySyncJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Occupancy: syncer,
	})
	if err != nil {
		t.Fatalf("NewOccupancySyncJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(syncer.inputs) != 1 {
		t.Fatalf("expected one sync call, got %d", len(syncer.inputs))
	}
	if syncer.inputs[0].PropertyID != nil {
		t.Fatal("scheduled sweep should cover every property")
	}
}
