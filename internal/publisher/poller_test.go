package publisher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/outbox"
)

type fakeRepo struct {
	pending []*outbox.Event

	fetchLimit   int
	publishedIDs []string
	attemptedIDs []string
}

func (r *fakeRepo) Create(context.Context, *outbox.Event) error { return nil }

func (r *fakeRepo) FetchPending(_ context.Context, limit int) ([]*outbox.Event, error) {
	r.fetchLimit = limit
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *fakeRepo) MarkPublished(_ context.Context, ids []string, _ time.Time) error {
	r.publishedIDs = append(r.publishedIDs, ids...)
	return nil
}

func (r *fakeRepo) MarkAttempted(_ context.Context, ids []string) error {
	r.attemptedIDs = append(r.attemptedIDs, ids...)
	return nil
}

func (r *fakeRepo) ListByAggregateID(context.Context, string) ([]*outbox.Event, error) {
	return nil, nil
}

type published struct {
	routingKey string
	messageID  string
}

type fakeChannel struct {
	failIDs   map[string]bool
	published []published
	closed    bool
}

func (c *fakeChannel) Publish(_ context.Context, routingKey, messageID string, _ time.Time, _ []byte) error {
	if c.failIDs[messageID] {
		return errors.New("channel closed by server")
	}
	c.published = append(c.published, published{routingKey, messageID})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func pendingEvents(n int) []*outbox.Event {
	events := make([]*outbox.Event, 0, n)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < n; i++ {
		events = append(events, &outbox.Event{
			ID:          fmt.Sprintf("event-%02d", i),
			EventType:   outbox.TypeStockReserved,
			AggregateID: "invoice-1",
			Payload:     []byte(`{"notaId":"invoice-1"}`),
			OccurredAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	return events
}

func TestProcessBatch_PublishesOldestFirstUpToBatchSize(t *testing.T) {
	repo := &fakeRepo{pending: pendingEvents(12)}
	ch := &fakeChannel{}
	poller := NewOutboxPoller(repo, func() (BrokerChannel, error) { return ch, nil })

	if err := poller.processBatch(context.Background()); err != nil {
		t.Fatalf("expected nil, got error: %v", err)
	}

	if repo.fetchLimit != batchSize {
		t.Errorf("expected fetch limit %d, got %d", batchSize, repo.fetchLimit)
	}
	if len(ch.published) != batchSize {
		t.Fatalf("expected %d published, got %d", batchSize, len(ch.published))
	}
	if ch.published[0].messageID != "event-00" || ch.published[batchSize-1].messageID != "event-09" {
		t.Errorf("expected oldest-first order, got first=%s last=%s",
			ch.published[0].messageID, ch.published[batchSize-1].messageID)
	}
	if ch.published[0].routingKey != outbox.TypeStockReserved {
		t.Errorf("expected event type as routing key, got %q", ch.published[0].routingKey)
	}
	if len(repo.publishedIDs) != batchSize {
		t.Errorf("expected %d events marked published, got %d", batchSize, len(repo.publishedIDs))
	}
	if len(repo.attemptedIDs) != 0 {
		t.Errorf("expected no failed attempts, got %v", repo.attemptedIDs)
	}
	if !ch.closed {
		t.Error("expected channel closed after batch")
	}
}

func TestProcessBatch_PartialFailureSplitsTheBatch(t *testing.T) {
	repo := &fakeRepo{pending: pendingEvents(3)}
	ch := &fakeChannel{failIDs: map[string]bool{"event-01": true}}
	poller := NewOutboxPoller(repo, func() (BrokerChannel, error) { return ch, nil })

	if err := poller.processBatch(context.Background()); err != nil {
		t.Fatalf("expected nil, got error: %v", err)
	}

	if len(repo.publishedIDs) != 2 {
		t.Errorf("expected 2 marked published, got %v", repo.publishedIDs)
	}
	if len(repo.attemptedIDs) != 1 || repo.attemptedIDs[0] != "event-01" {
		t.Errorf("expected event-01 marked attempted, got %v", repo.attemptedIDs)
	}
}

func TestProcessBatch_ChannelOpenFailureLeavesEventsPending(t *testing.T) {
	repo := &fakeRepo{pending: pendingEvents(3)}
	poller := NewOutboxPoller(repo, func() (BrokerChannel, error) {
		return nil, errors.New("broker unreachable")
	})

	if err := poller.processBatch(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(repo.publishedIDs) != 0 || len(repo.attemptedIDs) != 0 {
		t.Errorf("expected no marking, got published=%v attempted=%v",
			repo.publishedIDs, repo.attemptedIDs)
	}
}

func TestProcessBatch_NoPendingEventsOpensNoChannel(t *testing.T) {
	repo := &fakeRepo{}
	opened := false
	poller := NewOutboxPoller(repo, func() (BrokerChannel, error) {
		opened = true
		return &fakeChannel{}, nil
	})

	if err := poller.processBatch(context.Background()); err != nil {
		t.Fatalf("expected nil, got error: %v", err)
	}
	if opened {
		t.Error("expected no channel opened for an empty batch")
	}
}
