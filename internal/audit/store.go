package audit

import "context"

// Store is the audit sink. Append-only; events are never rewritten.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
	ListByKey(ctx context.Context, key string) ([]Event, error)
}
