package monquery

import (
	"context"

	"github.com/monomonedula/monquery/store"
	"github.com/stretchr/testify/mock"
)

// MockFinder is a test double for store.Finder.
type MockFinder struct {
	mock.Mock
}

var _ store.Finder = (*MockFinder)(nil)

func (m *MockFinder) Find(ctx context.Context, collectionName string, filter interface{}, opts *store.FindOptions) <-chan store.QueryResult {
	args := m.Called(ctx, collectionName, filter, opts)
	ch := make(chan store.QueryResult, 1)
	if res := args.Get(0); res != nil {
		ch <- res.(store.QueryResult)
	}
	close(ch)
	return ch
}

// sliceResult serves documents from memory.
type sliceResult struct {
	docs   []interface{}
	pos    int
	err    error
	closed bool
}

func (r *sliceResult) Next() bool {
	if r.err != nil || r.pos >= len(r.docs) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceResult) Decode(v interface{}) error {
	p := v.(*interface{})
	*p = r.docs[r.pos-1]
	return nil
}

func (r *sliceResult) Close() { r.closed = true }

func (r *sliceResult) Error() error { return r.err }
