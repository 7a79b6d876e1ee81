package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/internal/observability"
	"github.com/monomonedula/monquery/internal/platform/config"
	"github.com/monomonedula/monquery/store"
	todoerrors "github.com/monomonedula/monquery/todos/errors"
	"github.com/monomonedula/monquery/todos/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func testSchema() monquery.Schema {
	return NewSchema(config.QueryConfig{DefaultLimit: 40, SortKey: "sort", SkipKey: "skip", LimitKey: "limit"})
}

func int64Ptr(v int64) *int64 { return &v }

func TestListTodos(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2021, 3, 4, 10, 11, 12, 0, time.UTC)

	t.Run("translates the query", func(t *testing.T) {
		mockRepo := new(MockRepository)
		cursor := &TodoCursor{Todos: []models.Todo{{ID: "1", Title: "milk", CreatedAt: created}}}

		wantFilter := bson.M{"$and": bson.A{
			bson.M{"title": bson.M{"$in": bson.A{"milk", "eggs"}}},
			bson.M{"created_at": bson.M{"$gte": time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}},
		}}
		wantOpts := &store.FindOptions{
			Skip:  int64Ptr(5),
			Limit: int64Ptr(40),
			Sort:  bson.D{{Key: "created_at", Value: -1}},
		}
		mockRepo.On("Find", ctx, CollectionName, wantFilter, wantOpts).Return(cursor).Once()

		svc := NewService(mockRepo, testSchema())
		todos, err := svc.ListTodos(ctx, url.Values{
			"title":     {"milk", "eggs"},
			"time[min]": {"2021-01-01"},
			"sort":      {"-creation-time"},
			"skip":      {"5"},
		}, nil)

		require.NoError(t, err)
		require.Equal(t, []models.TodoResponse{{ID: "1", Title: "milk", CreatedAt: "2021-03-04T10:11:12Z"}}, todos)
		require.True(t, cursor.Closed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("projection from fields", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Find", ctx, CollectionName, bson.M{}, mock.MatchedBy(func(opts *store.FindOptions) bool {
			return len(opts.Projection) == 2 && opts.Projection["title"] == 1 && opts.Projection["created_at"] == 1
		})).Return(&TodoCursor{}).Once()

		svc := NewService(mockRepo, testSchema())
		todos, err := svc.ListTodos(ctx, url.Values{}, []string{"title, created_at"})

		require.NoError(t, err)
		require.Empty(t, todos)
		require.NotNil(t, todos)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown projection field", func(t *testing.T) {
		svc := NewService(new(MockRepository), testSchema())
		_, err := svc.ListTodos(ctx, url.Values{}, []string{"secret"})
		require.ErrorIs(t, err, todoerrors.ErrInvalidRequest)
	})

	t.Run("rejected query is counted and returned verbatim", func(t *testing.T) {
		mockRepo := new(MockRepository)
		metrics := observability.NewQueryMetrics("test")

		svc := NewService(mockRepo, testSchema(), WithMetrics(metrics))
		_, err := svc.ListTodos(ctx, url.Values{"sort": {"bogus"}}, nil)

		require.EqualError(t, err, "unexpected sorting key: 'bogus'")
		require.True(t, monquery.IsQueryError(err))
		mockRepo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Find", ctx, CollectionName, mock.Anything, mock.Anything).
			Return(&TodoCursor{Err: errors.New("no reachable servers")}).Once()

		svc := NewService(mockRepo, testSchema())
		_, err := svc.ListTodos(ctx, url.Values{}, nil)

		require.ErrorIs(t, err, todoerrors.ErrDatabaseOperation)
		require.False(t, monquery.IsQueryError(err))
	})
}

func TestCreateTodo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2021, 3, 4, 10, 11, 12, 123456789, time.UTC)
	clock := func() time.Time { return now }

	t.Run("saves and reads back", func(t *testing.T) {
		mockRepo := new(MockRepository)

		var saved models.Todo
		mockRepo.On("Save", ctx, CollectionName, mock.AnythingOfType("models.Todo")).
			Run(func(args mock.Arguments) { saved = args.Get(2).(models.Todo) }).
			Return("generated-id", nil).Once()
		mockRepo.On("FindOne", ctx, CollectionName, bson.M{"_id": "generated-id"}).
			Return(&TodoResult{Todo: &models.Todo{
				ID:          "generated-id",
				Title:       "milk",
				Description: "2l",
				CreatedAt:   now.Truncate(time.Millisecond),
			}}).Once()

		svc := NewService(mockRepo, testSchema(), WithClock(clock))
		resp, err := svc.CreateTodo(ctx, models.CreateTodoRequest{Title: "milk", Description: "2l"})

		require.NoError(t, err)
		require.Equal(t, &models.TodoResponse{
			ID:          "generated-id",
			Title:       "milk",
			Description: "2l",
			CreatedAt:   "2021-03-04T10:11:12.123Z",
		}, resp)
		require.Equal(t, "milk", saved.Title)
		require.Equal(t, now.Truncate(time.Millisecond), saved.CreatedAt)
		require.NotEmpty(t, saved.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("title is required", func(t *testing.T) {
		svc := NewService(new(MockRepository), testSchema())
		_, err := svc.CreateTodo(ctx, models.CreateTodoRequest{Title: "  "})
		require.ErrorIs(t, err, todoerrors.ErrInvalidRequest)
	})

	t.Run("save failure", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Save", ctx, CollectionName, mock.Anything).Return(nil, errors.New("db down")).Once()

		svc := NewService(mockRepo, testSchema())
		_, err := svc.CreateTodo(ctx, models.CreateTodoRequest{Title: "milk"})
		require.ErrorIs(t, err, todoerrors.ErrDatabaseOperation)
	})

	t.Run("missing after save", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Save", ctx, CollectionName, mock.Anything).Return("id", nil).Once()
		mockRepo.On("FindOne", ctx, CollectionName, mock.Anything).Return(&TodoResult{Missing: true}).Once()

		svc := NewService(mockRepo, testSchema())
		_, err := svc.CreateTodo(ctx, models.CreateTodoRequest{Title: "milk"})
		require.ErrorIs(t, err, todoerrors.ErrTodoNotFound)
	})
}
