package services

import (
	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/conv"
	"github.com/monomonedula/monquery/filter"
	"github.com/monomonedula/monquery/internal/platform/config"
	"github.com/monomonedula/monquery/pagination"
	"github.com/monomonedula/monquery/sorting"
)

// NewSchema declares the query params accepted by GET /todos/.
//
//	title=a&title=b        title in (a, b)
//	titles=["a","b"]       same, as one JSON array
//	time[min], time[max]   inclusive bounds on created_at (ISO 8601)
//	sort                   title, -title, creation-time, -creation-time
//	skip, limit            paging window
func NewSchema(cfg config.QueryConfig) monquery.Schema {
	return monquery.Schema{
		Filter: filter.New(
			filter.Eq("title", conv.String),
			filter.Array("titles", conv.String, "title", filter.OpIn),
			filter.Max("time[max]", conv.DatetimeISO, "created_at", true),
			filter.Min("time[min]", conv.DatetimeISO, "created_at", true),
		),
		Sorting: sorting.New([]sorting.Option{
			{Key: "title", Field: "title", Direction: sorting.Ascending},
			{Key: "-title", Field: "title", Direction: sorting.Descending},
			{Key: "creation-time", Field: "created_at", Direction: sorting.Ascending},
			{Key: "-creation-time", Field: "created_at", Direction: sorting.Descending},
		}, sorting.WithKey(cfg.SortKey)),
		Pagination: pagination.NewBasic(
			pagination.WithDefaultLimit(cfg.DefaultLimit),
			pagination.WithSkipKey(cfg.SkipKey),
			pagination.WithLimitKey(cfg.LimitKey),
		),
	}
}
