package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/livetodo/internal/repository"
	"github.com/google/uuid"
)

// Service applies mutations to the item store and publishes one event per
// committed mutation.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new todo service. publisher and logger may be nil.
func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new item.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Item, error) {
	if err := ValidateCreateInput(&req); err != nil {
		return nil, err
	}

	now := s.now()
	item := &Item{
		ID:        uuid.NewString(),
		Text:      req.Text,
		Completed: false,
		Priority:  req.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	s.publish(Created{Item: *item})
	return item, nil
}

// List returns items matching filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Item, error) {
	items, err := s.repo.List(ctx, ListOptions{Completed: filter.CompletedValue()})
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Get fetches an item by ID.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting todo: %w", err)
	}
	return item, nil
}

// Update applies the provided fields and refreshes UpdatedAt.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Item, error) {
	if err := ValidateUpdateInput(&req); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if req.Text != nil {
		updated.Text = *req.Text
	}
	if req.Completed != nil {
		updated.Completed = *req.Completed
	}
	if req.Priority != nil {
		updated.Priority = *req.Priority
	}
	updated.UpdatedAt = s.now()
	if !updated.UpdatedAt.After(current.UpdatedAt) {
		updated.UpdatedAt = current.UpdatedAt.Add(time.Millisecond)
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating todo: %w", err)
	}

	s.publish(Updated{Item: updated})
	return &updated, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting todo: %w", err)
	}

	s.publish(Deleted{ID: id})
	return nil
}

// ClearCompleted removes every completed item. The event is published even
// when nothing was removed.
func (s *Service) ClearCompleted(ctx context.Context) error {
	n, err := s.repo.DeleteCompleted(ctx)
	if err != nil {
		return fmt.Errorf("clearing completed todos: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("cleared completed todos", "count", n)
	}

	s.publish(BulkDeleted{Kind: BulkDeletedCompleted})
	return nil
}

// ClearAll removes every item.
func (s *Service) ClearAll(ctx context.Context) error {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("clearing todos: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("cleared all todos", "count", n)
	}

	s.publish(BulkDeleted{Kind: BulkDeletedAll})
	return nil
}

// ToggleAll marks every item not completed when all are completed, and every
// item completed otherwise. It returns all items after the toggle.
func (s *Service) ToggleAll(ctx context.Context) ([]Item, error) {
	items, err := s.repo.ToggleAll(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("toggling todos: %w", err)
	}
	SortNewestFirst(items)

	s.publish(BulkUpdated{Items: items})
	return items, nil
}

// Stats counts items by completion state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.repo.Count(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("counting todos: %w", err)
	}
	done := true
	completed, err := s.repo.Count(ctx, &done)
	if err != nil {
		return Stats{}, fmt.Errorf("counting completed todos: %w", err)
	}
	return Stats{Total: total, Completed: completed, Active: total - completed}, nil
}

func (s *Service) publish(event Event) {
	if s.logger != nil {
		s.logger.Debug("publishing event", "event", event.Name())
	}
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(event)
}
