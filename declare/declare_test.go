package declare

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/filter"
	"github.com/monomonedula/monquery/pagination"
	"github.com/monomonedula/monquery/sorting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const todosYAML = `
params:
  - name: title
    kind: eq
  - name: titles
    kind: array
    field: title
    op: $in
  - name: time[max]
    kind: max
    type: datetime_iso
    field: created_at
    inclusive: true
  - name: done
    kind: of
    type: int
    cases:
      - value: "1"
        filter: {finished_at: {$ne: null}}
      - value: "0"
        filter: {finished_at: null}
basic:
  - field: priority
    type: int
    equality: false
    range: true
sorting:
  fields: [title]
  options:
    - {key: -title, field: title, direction: -1}
    - {key: creation-time, field: created_at}
  default: -title
pagination:
  default_limit: 20
  limit_key: per_page
`

func int64Ptr(v int64) *int64 { return &v }

func TestParse(t *testing.T) {
	schema, err := Parse([]byte(todosYAML))
	require.NoError(t, err)

	names := make([]string, 0)
	for _, p := range schema.Filter.Params() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{
		"title", "titles", "time[max]", "done",
		"$gte-priority", "$lte-priority", "$gt-priority", "$lt-priority",
	}, names)
	assert.Equal(t, []string{"title", "-title", "creation-time"}, schema.Sorting.Keys())

	t.Run("full query", func(t *testing.T) {
		spec, err := schema.Parse(url.Values{
			"titles":       {`["a","b"]`},
			"time[max]":    {"2024-01-02T03:04:05"},
			"done":         {"1"},
			"$gt-priority": {"3"},
			"per_page":     {"5"},
			"sort":         {"creation-time"},
		})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"$and": bson.A{
			bson.M{"title": bson.M{"$in": bson.A{"a", "b"}}},
			bson.M{"created_at": bson.M{"$lte": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}},
			bson.M{"finished_at": map[string]any{"$ne": nil}},
			bson.M{"priority": bson.M{"$gt": int64(3)}},
		}}, spec.Filter)
		assert.Equal(t, pagination.Window{Limit: int64Ptr(5)}, spec.Window)
		assert.Equal(t, "created_at", spec.Sort.TargetField())
		assert.Equal(t, sorting.Ascending, spec.Sort.Dir())
	})

	t.Run("defaults", func(t *testing.T) {
		spec, err := schema.Parse(url.Values{})
		require.NoError(t, err)
		assert.Equal(t, bson.M{}, spec.Filter)
		assert.Equal(t, "-title", spec.Sort.Key)
		assert.Equal(t, pagination.Window{Limit: int64Ptr(20)}, spec.Window)
	})

	t.Run("mapping miss", func(t *testing.T) {
		_, err := schema.Parse(url.Values{"done": {"0"}})
		require.NoError(t, err)

		_, err = schema.Parse(url.Values{"done": {"2"}})
		require.Error(t, err)
		assert.True(t, monquery.IsQueryError(err))
		assert.Equal(t, "Error while parsing 'done' param. unexpected value: '2'", err.Error())
	})
}

func TestParseNoPagination(t *testing.T) {
	schema, err := Parse([]byte("pagination:\n  disabled: true\n"))
	require.NoError(t, err)
	assert.Equal(t, pagination.Dummy{}, schema.Pagination)

	spec, err := schema.Parse(url.Values{"limit": {"x"}})
	require.NoError(t, err)
	assert.Equal(t, pagination.Window{}, spec.Window)
}

func TestParseNaming(t *testing.T) {
	doc := `
naming:
  min: {suffix: "[min]"}
basic:
  - field: age
    type: int
    range: true
`
	schema, err := Parse([]byte(doc))
	require.NoError(t, err)
	_, ok := schema.Filter.Lookup("age[min]")
	assert.True(t, ok)
	_, ok = schema.Filter.Lookup("$ne-age")
	assert.True(t, ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "bad yaml", doc: "params: [", want: "failed to parse schema"},
		{name: "missing name", doc: "params:\n  - kind: eq\n", want: "params[0]: name is required"},
		{name: "unknown kind", doc: "params:\n  - name: a\n    kind: regex\n", want: `unknown kind "regex"`},
		{name: "unknown type", doc: "params:\n  - name: a\n    type: uuid\n", want: `unknown type "uuid"`},
		{name: "bad operator", doc: "params:\n  - name: a\n    kind: single\n    op: $regex\n", want: `unsupported operator "$regex"`},
		{name: "bad case value", doc: "params:\n  - name: a\n    kind: of\n    type: int\n    cases:\n      - value: x\n", want: `case "x"`},
		{name: "case without filter", doc: "params:\n  - name: state\n    kind: of\n    cases:\n      - value: open\n", want: `param "state": case "open": filter is required`},
		{name: "case with empty filter", doc: "params:\n  - name: state\n    kind: of\n    cases:\n      - {value: open, filter: {}}\n", want: `case "open": filter is required`},
		{name: "basic without field", doc: "basic:\n  - type: int\n", want: "basic[0]: field is required"},
		{name: "unknown default sort", doc: "sorting:\n  fields: [a]\n  default: b\n", want: `default "b" is not a declared option`},
		{name: "strict duplicate", doc: "strict: true\nparams:\n  - name: a\n  - name: a\n", want: "duplicate filter param: 'a'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(todosYAML), 0o600))

	schema, err := LoadFile(path)
	require.NoError(t, err)
	_, ok := schema.Filter.Lookup("title")
	assert.True(t, ok)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema file")
}

func TestParamKinds(t *testing.T) {
	schema, err := Parse([]byte(`
params:
  - {name: a, kind: single, op: $gt, type: float}
  - {name: b, kind: multi, op: $nin}
  - {name: c, kind: ne, scalar: true}
  - {name: d, kind: min, type: timestamp, field: created_at}
  - {name: e, type: int, "null": none}
`))
	require.NoError(t, err)

	kinds := map[string]filter.Kind{}
	for _, p := range schema.Filter.Params() {
		kinds[p.Name()] = p.Kind()
	}
	assert.Equal(t, map[string]filter.Kind{
		"a": filter.KindSingle,
		"b": filter.KindMulti,
		"c": filter.KindSingle,
		"d": filter.KindRange,
		"e": filter.KindMulti,
	}, kinds)

	spec, err := schema.Parse(url.Values{"e": {"none"}, "c": {"x"}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$and": bson.A{
		bson.M{"c": bson.M{"$ne": "x"}},
		bson.M{"e": bson.M{"$in": bson.A{nil}}},
	}}, spec.Filter)
}
