package services

import (
	"context"
	"fmt"

	"github.com/monomonedula/monquery/store"
	"github.com/monomonedula/monquery/todos/models"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a test double for store.Repository.
type MockRepository struct {
	mock.Mock
}

var _ store.Repository = (*MockRepository)(nil)

func (m *MockRepository) Find(ctx context.Context, collectionName string, filter interface{}, opts *store.FindOptions) <-chan store.QueryResult {
	args := m.Called(ctx, collectionName, filter, opts)
	ch := make(chan store.QueryResult, 1)
	ch <- args.Get(0).(store.QueryResult)
	close(ch)
	return ch
}

func (m *MockRepository) Save(ctx context.Context, collectionName string, data interface{}) <-chan store.RepositoryResult {
	args := m.Called(ctx, collectionName, data)
	ch := make(chan store.RepositoryResult, 1)
	ch <- store.RepositoryResult{Result: args.Get(0), Error: args.Error(1)}
	close(ch)
	return ch
}

func (m *MockRepository) FindOne(ctx context.Context, collectionName string, filter interface{}) <-chan store.SingleResult {
	args := m.Called(ctx, collectionName, filter)
	ch := make(chan store.SingleResult, 1)
	ch <- args.Get(0).(store.SingleResult)
	close(ch)
	return ch
}

func (m *MockRepository) Count(ctx context.Context, collectionName string, filter interface{}) <-chan store.CountResult {
	args := m.Called(ctx, collectionName, filter)
	ch := make(chan store.CountResult, 1)
	ch <- store.CountResult{Count: args.Get(0).(int64), Error: args.Error(1)}
	close(ch)
	return ch
}

func (m *MockRepository) CreateIndex(ctx context.Context, collectionName string, indexes map[string]interface{}) <-chan error {
	args := m.Called(ctx, collectionName, indexes)
	ch := make(chan error, 1)
	ch <- args.Error(0)
	close(ch)
	return ch
}

func (m *MockRepository) Ping(ctx context.Context) <-chan error {
	args := m.Called(ctx)
	ch := make(chan error, 1)
	ch <- args.Error(0)
	close(ch)
	return ch
}

func (m *MockRepository) Close() error {
	return m.Called().Error(0)
}

// TodoCursor serves todos from memory as a store.QueryResult.
type TodoCursor struct {
	Todos  []models.Todo
	Err    error
	Closed bool
	pos    int
}

func (c *TodoCursor) Next() bool {
	if c.Err != nil || c.pos >= len(c.Todos) {
		return false
	}
	c.pos++
	return true
}

func (c *TodoCursor) Decode(v interface{}) error {
	dst, ok := v.(*models.Todo)
	if !ok {
		return fmt.Errorf("cannot decode todo into %T", v)
	}
	*dst = c.Todos[c.pos-1]
	return nil
}

func (c *TodoCursor) Close() { c.Closed = true }

func (c *TodoCursor) Error() error { return c.Err }

// TodoResult serves one todo as a store.SingleResult.
type TodoResult struct {
	Todo    *models.Todo
	Err     error
	Missing bool
}

func (r *TodoResult) Decode(v interface{}) error {
	if r.Missing {
		return store.ErrNoDocuments
	}
	dst, ok := v.(*models.Todo)
	if !ok {
		return fmt.Errorf("cannot decode todo into %T", v)
	}
	*dst = *r.Todo
	return nil
}

func (r *TodoResult) Error() error {
	if r.Missing {
		return store.ErrNoDocuments
	}
	return r.Err
}

func (r *TodoResult) NoResult() bool { return r.Missing }
