// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package monquery translates request query strings into MongoDB reads.
//
// A service declares once which query params it accepts (package filter),
// which sort orders it offers (package sorting) and how results are paged
// (package pagination). A Schema then turns any incoming url.Values into a
// filter document, an optional sort and a skip/limit window, or into the
// first error found:
//
//	schema := monquery.Schema{
//		Filter: filter.New(
//			filter.Eq("title", conv.String),
//			filter.Max("time[max]", conv.DatetimeISO, "created_at", true),
//		),
//		Sorting:    sorting.New(sorting.Fields("title")),
//		Pagination: pagination.NewBasic(pagination.WithDefaultLimit(40)),
//	}
//	cur, err := schema.Find(ctx, repo, "todos", r.URL.Query())
//
// Declarations are immutable and may be shared by any number of goroutines.
package monquery
