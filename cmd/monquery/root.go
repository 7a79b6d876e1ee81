package main

import (
	"fmt"
	"os"

	"github.com/monomonedula/monquery"
	"github.com/monomonedula/monquery/declare"
	applog "github.com/monomonedula/monquery/internal/pkg/log"
	platformconfig "github.com/monomonedula/monquery/internal/platform/config"
	"github.com/monomonedula/monquery/todos/services"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	schemaFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "monquery",
	Short: "Inspect query string schemas",
	Long: `Monquery turns query strings into MongoDB filters, sorts and paging windows.

This tool loads a schema and shows what a query string translates to,
without touching a database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applog.SetOutput(cmd.ErrOrStderr())
		applog.SetDebug(verbose)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&schemaFile, "schema", "s", "", "schema file path (default: built-in todos schema)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func loadSchema(path string) (monquery.Schema, error) {
	if path == "" {
		applog.Debug("Using built-in todos schema")
		cfg, err := platformconfig.LoadFromMap(map[string]string{})
		if err != nil {
			return monquery.Schema{}, err
		}
		return services.NewSchema(cfg.Query), nil
	}
	applog.Debug("Loading schema from %s", path)
	return declare.LoadFile(path)
}
