package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leaseflow/leaseflow-backend/pkg/config"
	"github.com/leaseflow/leaseflow-backend/pkg/db/models"
	"github.com/leaseflow/leaseflow-backend/pkg/enums"
	"github.com/leaseflow/leaseflow-backend/pkg/logger"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	attrs []map[string]string
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.attrs = append(f.attrs, attrs)
	return uuid.NewString(), nil
}

func testService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Config: &config.Config{
			Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: 3},
		},
		Logger:    logg,
		Repo:      repo,
		Publisher: pub,
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

func queuedEvent() models.OutboxEvent {
	payload, _ := json.Marshal(map[string]any{
		"version":    1,
		"eventId":    uuid.NewString(),
		"occurredAt": time.Now().UTC(),
		"data":       map[string]any{"lease_id": uuid.NewString()},
	})
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventLeaseExpired,
		AggregateType: enums.AggregateLease,
		AggregateID:   uuid.New(),
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := queuedEvent()
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := testService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report work")
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
	if len(pub.attrs) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.attrs))
	}
	if pub.attrs[0]["event_type"] != string(enums.EventLeaseExpired) {
		t.Fatalf("expected event_type attribute, got %q", pub.attrs[0]["event_type"])
	}
	if pub.attrs[0]["event_id"] == "" {
		t.Fatalf("expected event_id attribute from the payload envelope")
	}
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{queuedEvent(), queuedEvent()}}
	pub := &fakePublisher{err: fmt.Errorf("topic unavailable")}
	svc := testService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report work")
	}
	if len(repo.failed) != 2 {
		t.Fatalf("expected both events marked failed, got %d", len(repo.failed))
	}
	if len(repo.published) != 0 {
		t.Fatalf("expected no events marked published")
	}
}

func TestProcessBatchIdleWhenQueueEmpty(t *testing.T) {
	repo := &fakeRepo{}
	svc := testService(t, repo, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
}
