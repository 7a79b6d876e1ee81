package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/filter"
	"github.com/monomonedula/monquery/pagination"
	"github.com/spf13/cobra"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the query keys a schema accepts",
	Long: `List the filter params, the sort key and options, and the paging keys of
a schema, in evaluation order.

Examples:
  monquery params
  monquery params --schema schema.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(schemaFile)
		if err != nil {
			return err
		}
		describe(cmd.OutOrStdout(), schema)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

func describe(w io.Writer, schema monquery.Schema) {
	heading := color.New(color.Bold).SprintFunc()

	fmt.Fprintln(w, heading("Filter params:"))
	var params []filter.Param
	if schema.Filter != nil {
		params = schema.Filter.Params()
	}
	if len(params) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, p := range params {
		switch p.Kind() {
		case filter.KindMapping:
			fmt.Fprintf(w, "  %-24s %s\n", p.Name(), p.Kind())
		default:
			fmt.Fprintf(w, "  %-24s %-8s %s %s\n", p.Name(), p.Kind(), p.Field(), p.Operator())
		}
	}

	fmt.Fprintln(w, heading("Sorting:"))
	if schema.Sorting == nil {
		fmt.Fprintln(w, "  none")
	} else {
		fmt.Fprintf(w, "  key: %s\n", schema.Sorting.Key())
		fmt.Fprintf(w, "  options: %s\n", strings.Join(schema.Sorting.Keys(), ", "))
		if def := schema.Sorting.Default(); def != nil {
			fmt.Fprintf(w, "  default: %s\n", def.Key)
		}
	}

	fmt.Fprintln(w, heading("Pagination:"))
	switch pg := schema.Pagination.(type) {
	case *pagination.Basic:
		skip, limit := pg.Keys()
		fmt.Fprintf(w, "  skip: %s\n  limit: %s\n", skip, limit)
	default:
		fmt.Fprintln(w, "  none")
	}
}
