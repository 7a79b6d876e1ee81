// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package monquery

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/monomonedula/monquery/filter"
	"github.com/monomonedula/monquery/pagination"
	"github.com/monomonedula/monquery/sorting"
	"github.com/monomonedula/monquery/store"
	"go.mongodb.org/mongo-driver/bson"
)

// Stage names the part of a query that was rejected.
type Stage string

const (
	StageFilter     Stage = "filter"
	StagePagination Stage = "pagination"
	StageSort       Stage = "sort"
)

// ErrNoResult is returned when the store closes its result channel without
// sending anything.
var ErrNoResult = errors.New("store returned no result")

// QueryError is a rejected query. Its message is the message of the stage
// error unchanged, so it can be shown to clients as is.
type QueryError struct {
	Stage Stage
	Err   error
}

func (e *QueryError) Error() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError reports whether err, or anything it wraps, is a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// Schema groups the declarations of one listing. Nil members mean no
// restriction, no sort and no paging respectively.
type Schema struct {
	Filter     *filter.Filter
	Sorting    *sorting.Sorting
	Pagination pagination.Pagination
}

// Spec is a parsed query.
type Spec struct {
	Filter bson.M
	Sort   *sorting.Option
	Window pagination.Window
}

// Parse evaluates the filter, then the pagination, then the sort and stops
// at the first failure.
func (s Schema) Parse(q url.Values) (Spec, error) {
	fltr, err := s.Filter.FromQuery(q)
	if err != nil {
		return Spec{}, &QueryError{Stage: StageFilter, Err: err}
	}

	var window pagination.Window
	if s.Pagination != nil {
		window, err = s.Pagination.FromQuery(q)
		if err != nil {
			return Spec{}, &QueryError{Stage: StagePagination, Err: err}
		}
	}

	sort, err := s.Sorting.FromQuery(q)
	if err != nil {
		return Spec{}, &QueryError{Stage: StageSort, Err: err}
	}

	return Spec{Filter: fltr, Sort: sort, Window: window}, nil
}

// FindOptions renders the sort and window of the parsed query, with an optional
// projection, as store options.
func (sp Spec) FindOptions(projection bson.M) *store.FindOptions {
	opts := &store.FindOptions{
		Skip:       sp.Window.Skip,
		Limit:      sp.Window.Limit,
		Projection: projection,
	}
	if sp.Sort != nil {
		opts.Sort = sp.Sort.Document()
	}
	return opts
}

// FindOption adjusts a Find call.
type FindOption func(*findSettings)

type findSettings struct {
	projection bson.M
}

// WithProjection restricts the fields returned for each document.
func WithProjection(projection bson.M) FindOption {
	return func(s *findSettings) { s.projection = projection }
}

// Find parses q and runs the resulting read against repo. A rejected query
// is returned as a *QueryError and the store is not called.
func (s Schema) Find(ctx context.Context, repo store.Finder, collectionName string, q url.Values, opts ...FindOption) (store.QueryResult, error) {
	spec, err := s.Parse(q)
	if err != nil {
		return nil, err
	}
	return spec.Find(ctx, repo, collectionName, opts...)
}

// Find runs the parsed query against repo.
func (sp Spec) Find(ctx context.Context, repo store.Finder, collectionName string, opts ...FindOption) (store.QueryResult, error) {
	var settings findSettings
	for _, opt := range opts {
		opt(&settings)
	}

	cur, ok := <-repo.Find(ctx, collectionName, sp.Filter, sp.FindOptions(settings.projection))
	if !ok || cur == nil {
		return nil, ErrNoResult
	}
	if err := cur.Error(); err != nil {
		cur.Close()
		return nil, fmt.Errorf("find in %s: %w", collectionName, err)
	}
	return cur, nil
}

// Find is Schema.Find for callers holding the three declarations separately.
func Find(
	ctx context.Context,
	repo store.Finder,
	collectionName string,
	fltr *filter.Filter,
	srt *sorting.Sorting,
	pg pagination.Pagination,
	q url.Values,
	opts ...FindOption,
) (store.QueryResult, error) {
	return Schema{Filter: fltr, Sorting: srt, Pagination: pg}.Find(ctx, repo, collectionName, q, opts...)
}
