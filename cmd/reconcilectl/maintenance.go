package main

import (
	"context"
	"fmt"
	"notification-service/internal/app"

	"github.com/spf13/cobra"
)

func reindexRefundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex-refunds",
		Short: "Rebuild the refund id index from the stored correlation records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !a.Config.RefundIndex {
					fmt.Fprintln(cmd.OutOrStdout(), "refund index disabled, nothing to do")
					return nil
				}
				n, err := a.Correlations.RebuildRefundIndex(ctx)
				if err != nil {
					return fmt.Errorf("rebuilding refund index: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d refund ids\n", n)
				return nil
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the order and attribute tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}
