package monquery

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/monomonedula/monquery/conv"
	"github.com/monomonedula/monquery/filter"
	"github.com/monomonedula/monquery/pagination"
	"github.com/monomonedula/monquery/sorting"
	"github.com/monomonedula/monquery/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func int64Ptr(v int64) *int64 { return &v }

func todoSchema() Schema {
	return Schema{
		Filter: filter.New(
			filter.Eq("title", conv.String),
			filter.Max("time[max]", conv.DatetimeISO, "created_at", true),
			filter.Min("time[min]", conv.DatetimeISO, "created_at", true),
		),
		Sorting: sorting.New([]sorting.Option{
			{Key: "title", Direction: sorting.Ascending},
			{Key: "-title", Field: "title", Direction: sorting.Descending},
			{Key: "creation-time", Field: "created_at", Direction: sorting.Ascending},
			{Key: "-creation-time", Field: "created_at", Direction: sorting.Descending},
		}),
		Pagination: pagination.NewBasic(pagination.WithDefaultLimit(40)),
	}
}

func TestParse(t *testing.T) {
	schema := todoSchema()

	t.Run("all stages", func(t *testing.T) {
		spec, err := schema.Parse(url.Values{
			"title": {"milk"},
			"sort":  {"-creation-time"},
			"skip":  {"10"},
			"other": {"ignored"},
		})
		require.NoError(t, err)
		require.Equal(t, bson.M{"$and": bson.A{bson.M{"title": bson.M{"$in": bson.A{"milk"}}}}}, spec.Filter)
		require.Equal(t, "created_at", spec.Sort.TargetField())
		require.Equal(t, sorting.Descending, spec.Sort.Dir())
		require.Equal(t, pagination.Window{Skip: int64Ptr(10), Limit: int64Ptr(40)}, spec.Window)
	})

	t.Run("empty query", func(t *testing.T) {
		spec, err := schema.Parse(url.Values{})
		require.NoError(t, err)
		require.Equal(t, bson.M{}, spec.Filter)
		require.Nil(t, spec.Sort)
		require.Equal(t, pagination.Window{Limit: int64Ptr(40)}, spec.Window)
	})

	t.Run("filter error wins over pagination and sort", func(t *testing.T) {
		_, err := schema.Parse(url.Values{
			"time[max]": {"yesterday"},
			"limit":     {"x"},
			"sort":      {"bogus"},
		})
		require.EqualError(t, err, "Error while parsing 'time[max]' param. invalid isoformat string: 'yesterday'")

		var qe *QueryError
		require.True(t, errors.As(err, &qe))
		require.Equal(t, StageFilter, qe.Stage)

		var pe *filter.ParamError
		require.True(t, errors.As(err, &pe))
	})

	t.Run("pagination error wins over sort", func(t *testing.T) {
		_, err := schema.Parse(url.Values{"limit": {"x"}, "sort": {"bogus"}})
		require.EqualError(t, err, "value of 'limit' must be integer")

		var qe *QueryError
		require.True(t, errors.As(err, &qe))
		require.Equal(t, StagePagination, qe.Stage)
	})

	t.Run("sort error", func(t *testing.T) {
		_, err := schema.Parse(url.Values{"sort": {"bogus"}})
		require.EqualError(t, err, "unexpected sorting key: 'bogus'")
		require.True(t, IsQueryError(err))

		var ke *sorting.KeyError
		require.True(t, errors.As(err, &ke))
	})

	t.Run("zero schema matches everything", func(t *testing.T) {
		spec, err := Schema{}.Parse(url.Values{"sort": {"x"}, "limit": {"y"}})
		require.NoError(t, err)
		require.Equal(t, Spec{Filter: bson.M{}}, spec)
	})

	t.Run("idempotent", func(t *testing.T) {
		q := url.Values{"title": {"a", "b"}, "time[min]": {"2021-01-01"}, "sort": {"title"}, "limit": {"5"}}
		first, err := schema.Parse(q)
		require.NoError(t, err)
		second, err := schema.Parse(q)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}

func TestSpecFindOptions(t *testing.T) {
	spec := Spec{
		Filter: bson.M{},
		Sort:   &sorting.Option{Key: "creation-time", Field: "created_at", Direction: sorting.Descending},
		Window: pagination.Window{Skip: int64Ptr(3), Limit: int64Ptr(7)},
	}

	opts := spec.FindOptions(bson.M{"title": 1})
	require.Equal(t, &store.FindOptions{
		Skip:       int64Ptr(3),
		Limit:      int64Ptr(7),
		Sort:       bson.D{{Key: "created_at", Value: -1}},
		Projection: bson.M{"title": 1},
	}, opts)

	require.Equal(t, &store.FindOptions{}, Spec{}.FindOptions(nil))
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	schema := todoSchema()

	t.Run("hands the parsed query to the store", func(t *testing.T) {
		finder := new(MockFinder)
		res := &sliceResult{docs: []interface{}{"a", "b"}}
		wantOpts := &store.FindOptions{
			Skip:       int64Ptr(14),
			Limit:      int64Ptr(32),
			Sort:       bson.D{{Key: "title", Value: 1}},
			Projection: bson.M{"title": 1},
		}
		finder.On("Find", ctx, "todos",
			bson.M{"$and": bson.A{bson.M{"title": bson.M{"$in": bson.A{"x"}}}}},
			wantOpts,
		).Return(res).Once()

		cur, err := schema.Find(ctx, finder, "todos", url.Values{
			"title": {"x"}, "sort": {"title"}, "skip": {"14"}, "limit": {"32"},
		}, WithProjection(bson.M{"title": 1}))
		require.NoError(t, err)

		var got []interface{}
		for cur.Next() {
			var doc interface{}
			require.NoError(t, cur.Decode(&doc))
			got = append(got, doc)
		}
		require.Equal(t, []interface{}{"a", "b"}, got)
		finder.AssertExpectations(t)
	})

	t.Run("rejected query never reaches the store", func(t *testing.T) {
		finder := new(MockFinder)

		cur, err := Find(ctx, finder, "todos", schema.Filter, schema.Sorting, schema.Pagination, url.Values{"sort": {"bogus"}})
		require.Nil(t, cur)
		require.EqualError(t, err, "unexpected sorting key: 'bogus'")
		finder.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store error is returned and the result closed", func(t *testing.T) {
		finder := new(MockFinder)
		res := &sliceResult{err: errors.New("connection reset")}
		finder.On("Find", ctx, "todos", mock.Anything, mock.Anything).Return(res).Once()

		_, err := schema.Find(ctx, finder, "todos", url.Values{})
		require.EqualError(t, err, "find in todos: connection reset")
		require.False(t, IsQueryError(err))
		require.True(t, res.closed)
	})

	t.Run("closed channel", func(t *testing.T) {
		finder := new(MockFinder)
		finder.On("Find", ctx, "todos", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := schema.Find(ctx, finder, "todos", url.Values{})
		require.ErrorIs(t, err, ErrNoResult)
	})
}
