package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured audit events. Emit is best-effort from the
// caller's perspective: failures are logged, never propagated into the write
// path that produced the event.
type Publisher struct {
	store Store
	inbox chan<- Event
	log   *slog.Logger
}

func NewPublisher(store Store, log *slog.Logger) *Publisher {
	return &Publisher{store: store, log: log}
}

// NewAsyncPublisher hands events to a Worker via inbox instead of writing
// the store inline. Events are dropped with a warning when the inbox is full.
func NewAsyncPublisher(inbox chan<- Event, log *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, log: log}
}

// Emit fills in ID and Timestamp when absent and appends the event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || (p.store == nil && p.inbox == nil) {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			if p.log != nil {
				p.log.WarnContext(ctx, "audit inbox full, dropping event",
					"action", event.Action, "key", event.Key)
			}
		}
		return
	}
	if err := p.store.Append(ctx, event); err != nil && p.log != nil {
		p.log.WarnContext(ctx, "audit append failed",
			"action", event.Action,
			"key", event.Key,
			"error", err,
		)
	}
}

func (p *Publisher) List(ctx context.Context) ([]Event, error) {
	if p == nil || p.store == nil {
		return nil, nil
	}
	return p.store.List(ctx)
}

func (p *Publisher) ListByKey(ctx context.Context, key string) ([]Event, error) {
	if p == nil || p.store == nil {
		return nil, nil
	}
	return p.store.ListByKey(ctx, key)
}
