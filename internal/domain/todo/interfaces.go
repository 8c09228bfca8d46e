package todo

import (
	"context"
	"time"
)

// Repository provides persistence for items.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]Item, error)
	DeleteCompleted(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	// ToggleAll atomically completes every item, or reopens all of them when
	// none is active, and returns every item after the change.
	ToggleAll(ctx context.Context, updatedAt time.Time) ([]Item, error)
	Count(ctx context.Context, completed *bool) (int, error)
}

// Publisher fans committed events out to connected clients.
type Publisher interface {
	Publish(event Event)
}
