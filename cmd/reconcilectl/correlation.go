package main

import (
	"context"
	"fmt"
	"notification-service/internal/app"
	"notification-service/internal/entities"
	internalErrors "notification-service/internal/errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func correlationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlation",
		Short: "Show or edit the gateway identifiers stored for an order",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [order-id]",
		Short: "Print an order's correlation record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrder(cmd, args[0], func(ctx context.Context, a *app.App, order *entities.Order) error {
				record, err := a.Recorder.Load(ctx, order)
				if err != nil {
					return err
				}
				printRecord(cmd, order, record)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-refund [order-id] [refund-id]",
		Short: "Attach a refund id to an order so refund notifications match it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOrder(cmd, args[0], func(ctx context.Context, a *app.App, order *entities.Order) error {
				record, err := a.Recorder.RecordRefund(ctx, order, args[1])
				if err != nil {
					return err
				}
				printRecord(cmd, order, record)
				return nil
			})
		},
	})

	return cmd
}

func withOrder(cmd *cobra.Command, rawID string, fn func(ctx context.Context, a *app.App, order *entities.Order) error) error {
	orderID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %q", rawID)
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		order, err := a.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("order %d: %w", orderID, internalErrors.ErrOrderNotFound)
		}
		return fn(ctx, a, order)
	})
}

func printRecord(cmd *cobra.Command, order *entities.Order, record *entities.CorrelationRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Order:           %d (store %d)\n", order.ID, order.StoreID)
	fmt.Fprintf(out, "Schema:          %s\n", record.Version)
	fmt.Fprintf(out, "GatewayOrderId:  %s\n", valueOrDash(record.GatewayOrderID))
	fmt.Fprintf(out, "AuthorizationId: %s\n", valueOrDash(record.AuthorizationID))
	fmt.Fprintf(out, "CaptureId:       %s\n", valueOrDash(record.CaptureID))
	fmt.Fprintf(out, "RefundIds:       %s\n", valueOrDash(strings.Join(record.RefundIDs, ", ")))
	fmt.Fprintf(out, "Settled:         %s\n", valueOrDash(strings.Join(record.SettledRefundIDs, ", ")))
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
