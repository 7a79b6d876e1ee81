package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/monomonedula/monquery"
	applog "github.com/monomonedula/monquery/internal/pkg/log"
	"github.com/monomonedula/monquery/internal/utils"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
)

var explainFlags struct {
	format string
}

var explainCmd = &cobra.Command{
	Use:   "explain [query]",
	Short: "Show what a query string translates to",
	Long: `Parse a query string with the schema and print the resulting filter,
sort and paging window. Values are rendered as relaxed extended JSON.

Examples:
  # Built-in todos schema
  monquery explain 'title=milk&time[min]=2024-01-01&sort=-creation-time'

  # Custom schema, JSON output for scripts
  monquery explain --schema schema.yaml --format json 'age[min]=18&limit=10'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().StringVar(&explainFlags.format, "format", "text", "output format: text, json")
}

func runExplain(cmd *cobra.Command, args []string) error {
	schema, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	var raw string
	if len(args) > 0 {
		raw = args[0]
	}
	return explain(cmd.OutOrStdout(), schema, raw, explainFlags.format)
}

// Explanation is the rendered outcome of one query string.
type Explanation struct {
	Query  string          `json:"query"`
	Valid  bool            `json:"valid"`
	Stage  string          `json:"stage,omitempty"`
	Error  string          `json:"error,omitempty"`
	Filter json.RawMessage `json:"filter,omitempty"`
	Sort   json.RawMessage `json:"sort,omitempty"`
	Skip   *int64          `json:"skip,omitempty"`
	Limit  *int64          `json:"limit,omitempty"`
}

func explainQuery(schema monquery.Schema, raw string) (Explanation, error) {
	out := Explanation{Query: raw}

	spec, err := schema.Parse(utils.ParseQueryString(raw))
	if err != nil {
		var qe *monquery.QueryError
		if !errors.As(err, &qe) {
			return out, err
		}
		out.Stage = string(qe.Stage)
		out.Error = qe.Error()
		return out, nil
	}
	applog.DebugStruct("parsed query", spec)

	out.Valid = true
	out.Skip = spec.Window.Skip
	out.Limit = spec.Window.Limit

	out.Filter, err = bson.MarshalExtJSON(spec.Filter, false, false)
	if err != nil {
		return out, fmt.Errorf("failed to render filter: %w", err)
	}
	if spec.Sort != nil {
		out.Sort, err = bson.MarshalExtJSON(spec.Sort.Document(), false, false)
		if err != nil {
			return out, fmt.Errorf("failed to render sort: %w", err)
		}
	}
	return out, nil
}

func explain(w io.Writer, schema monquery.Schema, raw, format string) error {
	out, err := explainQuery(schema, raw)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case "text":
		writeText(w, out)
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if !out.Valid {
		return fmt.Errorf("query rejected at %s stage", out.Stage)
	}
	return nil
}

func writeText(w io.Writer, out Explanation) {
	if !out.Valid {
		fmt.Fprintf(w, "error (%s): %s\n", out.Stage, out.Error)
		return
	}
	fmt.Fprintf(w, "filter: %s\n", out.Filter)
	if out.Sort != nil {
		fmt.Fprintf(w, "sort:   %s\n", out.Sort)
	} else {
		fmt.Fprintln(w, "sort:   none")
	}
	fmt.Fprintf(w, "skip:   %s\n", optional(out.Skip))
	fmt.Fprintf(w, "limit:  %s\n", optional(out.Limit))
}

func optional(v *int64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}
