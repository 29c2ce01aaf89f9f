package main

import (
	"context"
	"fmt"
	"notification-service/internal/app"
	"notification-service/internal/dtos"

	"github.com/spf13/cobra"
)

func matchCmd() *cobra.Command {
	var n struct {
		messageType     string
		authorizationID string
		captureID       string
		refundID        string
		gatewayOrderID  string
	}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Resolve a notification to its order without changing anything",
		Example: `  reconcilectl match --type Capture --capture-id P01-1234567-1234567-C000001
  reconcilectl match --type RefundNotification --refund-id r1 --gateway-order-id P01-1234567-1234567`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Matcher.Match(ctx, dtos.Notification{
					MessageType:     dtos.ParseMessageType(n.messageType),
					AuthorizationID: n.authorizationID,
					CaptureID:       n.captureID,
					RefundID:        n.refundID,
					GatewayOrderID:  n.gatewayOrderID,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch {
				case result.Unsupported:
					fmt.Fprintf(out, "unsupported message type %q\n", n.messageType)
				case result.Found():
					fmt.Fprintf(out, "order %d (strategy %s)\n", result.Order.ID, result.Strategy)
				default:
					fmt.Fprintf(out, "not found: %s\n", result.Reason)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&n.messageType, "type", "t", "", "message type (Authorization, Capture, Refund)")
	cmd.Flags().StringVar(&n.authorizationID, "authorization-id", "", "gateway authorization id")
	cmd.Flags().StringVar(&n.captureID, "capture-id", "", "gateway capture id")
	cmd.Flags().StringVar(&n.refundID, "refund-id", "", "gateway refund id")
	cmd.Flags().StringVar(&n.gatewayOrderID, "gateway-order-id", "", "gateway order reference id")
	cmd.MarkFlagRequired("type")

	return cmd
}
