package main

import (
	"context"
	"fmt"
	"notification-service/internal/app"
	"notification-service/internal/config"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reconcilectl",
		Short:         "Inspect and repair gateway notification correlation data",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("NOTIFY_CONFIG"), "path to a YAML config file")

	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(correlationCmd())
	rootCmd.AddCommand(reindexRefundsCmd())
	rootCmd.AddCommand(migrateCmd())

	return rootCmd
}

// withApp loads the configuration named by --config and runs fn against the
// resulting application, closing it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}
