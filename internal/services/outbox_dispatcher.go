package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sjperalta/debt-ledger/internal/models"
	"github.com/sjperalta/debt-ledger/internal/repository"
	"github.com/sjperalta/debt-ledger/pkg/logger"
)

// DefaultOutboxBatchSize caps how many events one dispatch run publishes
const DefaultOutboxBatchSize = 100

// Publisher delivers ledger events to the expense sync
type Publisher interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

// LocalPublisher hands events straight to an in-process sync handler
type LocalPublisher struct {
	sync *ExpenseSyncService
}

// NewLocalPublisher creates a publisher that handles events in-process
func NewLocalPublisher(sync *ExpenseSyncService) *LocalPublisher {
	return &LocalPublisher{sync: sync}
}

// Publish runs the sync handler for event
func (p *LocalPublisher) Publish(ctx context.Context, event models.OutboxEvent) error {
	return p.sync.HandleEvent(ctx, event)
}

// OutboxDispatcher publishes pending outbox events in creation order.
// Delivery is at-least-once; handlers deduplicate by event id.
type OutboxDispatcher struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	batchSize int
	now       func() time.Time
	mu        sync.Mutex
}

// NewOutboxDispatcher creates a new dispatcher
func NewOutboxDispatcher(outbox repository.OutboxRepository, publisher Publisher, batchSize int) *OutboxDispatcher {
	if batchSize <= 0 {
		batchSize = DefaultOutboxBatchSize
	}
	return &OutboxDispatcher{
		outbox:    outbox,
		publisher: publisher,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// DispatchPending publishes one batch of unpublished events. It stops at the
// first failure so later events are not delivered ahead of an earlier one.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	events, err := d.outbox.ListUnpublished(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list outbox events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	published := 0
	for _, event := range events {
		if err := d.publisher.Publish(ctx, event); err != nil {
			logger.Error("Failed to publish ledger event",
				"event_id", event.ID,
				"event_type", event.EventType,
				"error", err,
			)
			return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
		}
		if err := d.outbox.MarkPublished(ctx, event.ID, d.now()); err != nil {
			return fmt.Errorf("failed to mark event %s published: %w", event.ID, err)
		}
		published++
	}

	logger.Info("Dispatched ledger events", "count", published)
	return nil
}
