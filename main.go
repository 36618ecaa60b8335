package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "courier-bridge",
	Short:   "Courier Bridge - PedidosYa last-mile delivery integration service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server serving the webhook and shipment endpoints",
	RunE:  runServe,
}

var webhookSyncCmd = &cobra.Command{
	Use:   "webhook-sync",
	Short: "Push the configured webhook registration to the carrier",
	RunE:  runWebhookSync,
}

var webhookShowCmd = &cobra.Command{
	Use:   "webhook-show",
	Short: "Read back the carrier-side webhook registration",
	RunE:  runWebhookShow,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webhookSyncCmd)
	rootCmd.AddCommand(webhookShowCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	app.Logger.Info("Starting Courier Bridge",
		zap.Int("port", app.Config.Port),
		zap.String("version", app.Config.Version),
	)

	if err := app.Server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runWebhookSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	return app.SyncWebhook(ctx, cmd.OutOrStdout())
}

func runWebhookShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	return app.ShowWebhook(ctx, cmd.OutOrStdout())
}
