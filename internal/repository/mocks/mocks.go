package mocks

import (
	"context"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/stretchr/testify/mock"
)

// TodoRepository is a mock for todo.Repository.
type TodoRepository struct {
	mock.Mock
}

func (m *TodoRepository) Create(ctx context.Context, item *todo.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *TodoRepository) Get(ctx context.Context, id string) (*todo.Item, error) {
	args := m.Called(ctx, id)
	if item, ok := args.Get(0).(*todo.Item); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TodoRepository) Update(ctx context.Context, item *todo.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *TodoRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TodoRepository) List(ctx context.Context, opts todo.ListOptions) ([]todo.Item, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]todo.Item); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TodoRepository) DeleteCompleted(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TodoRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TodoRepository) ToggleAll(ctx context.Context, updatedAt time.Time) ([]todo.Item, error) {
	args := m.Called(ctx, updatedAt)
	if list, ok := args.Get(0).([]todo.Item); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TodoRepository) Count(ctx context.Context, completed *bool) (int, error) {
	args := m.Called(ctx, completed)
	return args.Int(0), args.Error(1)
}

// Publisher is a mock for todo.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(event todo.Event) {
	m.Called(event)
}
