// Package cmd defines the CLI commands for the bookharvest executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookharvest",
		Short: "Harvests a paginated book catalog into a durable sink.",
		Long: `bookharvest walks a paginated catalog site, extracts a fixed schema of
attributes from every item detail page, and upserts the records into a CSV
export or a Postgres table. Re-running a harvest is safe: writes are
idempotent on the (title, upc) natural key.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults + BOOKHARVEST_* env)")

	cmd.AddCommand(newHarvestCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
