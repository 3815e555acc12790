package main

import (
	"context"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/pkg/config"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	"github.com/waithaka-labs/dukapos-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubRepo struct {
	pending   []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (r *stubRepo) FetchPublishable(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *stubRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *stubRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

type stubResult struct {
	err error
}

func (r stubResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

type stubPublisher struct {
	messages []*gcppubsub.Message
	errFor   map[string]error
}

func (p *stubPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if err, ok := p.errFor[msg.Attributes["event_id"]]; ok {
		return stubResult{err: err}
	}
	return stubResult{}
}

func testEvent(eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateJournalEntry,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"entryId":"x"}`),
	}
}

func newTestService(t *testing.T, repo *stubRepo, pub *stubPublisher) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: config.OutboxConfig{BatchSize: 10, MaxAttempts: 3}},
		Logger:     logg,
		DB:         stubPinger{},
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	repo := &stubRepo{pending: []models.OutboxEvent{
		testEvent(enums.EventJournalPosted),
		testEvent(enums.EventStockReceived),
	}}
	pub := &stubPublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report work")
	}
	if len(pub.messages) != 2 {
		t.Fatalf("expected 2 publishes got %d", len(pub.messages))
	}
	if len(repo.published) != 2 || len(repo.failed) != 0 {
		t.Fatalf("expected 2 published 0 failed got %d/%d", len(repo.published), len(repo.failed))
	}
	if got := pub.messages[0].Attributes["event_type"]; got != string(enums.EventJournalPosted) {
		t.Fatalf("unexpected event_type attribute %q", got)
	}
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	bad := testEvent(enums.EventJournalPosted)
	good := testEvent(enums.EventSessionClosed)
	repo := &stubRepo{pending: []models.OutboxEvent{bad, good}}
	pub := &stubPublisher{errFor: map[string]error{
		bad.ID.String(): errors.New("topic unavailable"),
	}}
	svc := newTestService(t, repo, pub)

	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report work")
	}
	if len(repo.failed) != 1 || repo.failed[0] != bad.ID {
		t.Fatalf("expected bad event marked failed got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != good.ID {
		t.Fatalf("expected good event published got %v", repo.published)
	}
}

func TestProcessBatchEmptyIsIdle(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubPublisher{})

	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}

func TestNewServiceValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	if _, err := NewService(ServiceParams{Logger: logg}); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logg,
		DB:     stubPinger{},
	}); err == nil {
		t.Fatal("expected error without repository")
	}
}
