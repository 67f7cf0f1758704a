// Package commands wires the gamestore CLI: the interactive shell, the
// read-only HTTP API, and the schema bootstrap.
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mkarchuk/gamestore/internal/db"
	"github.com/mkarchuk/gamestore/internal/metrics"
	"github.com/mkarchuk/gamestore/internal/services"
	"github.com/mkarchuk/gamestore/internal/store"
	"github.com/mkarchuk/gamestore/pkg/config"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var rootCmd = &cobra.Command{
	Use:   "gamestore",
	Short: "A command-line game storefront over MySQL",
	Long: `gamestore is a terminal storefront: users register, browse the game
catalog, purchase games and wallet credit; administrators manage the catalog
and user records.

Running gamestore without a subcommand starts the interactive shell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the long-lived dependencies a subcommand needs.
type app struct {
	cfg        *config.Config
	db         *db.DB
	metrics    *metrics.AppMetrics
	accounts   *services.AccountService
	storefront *services.StorefrontService
	purchases  *services.PurchaseService

	meterProvider *sdkmetric.MeterProvider
}

// newApp acquires the database connection and the metrics pipeline, and
// constructs the services over them. Call close when the command finishes.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.LoadConfig()

	appMetrics, meterProvider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	database, err := db.NewDB(cfg.GetDSN(), cfg.OTELServiceName)
	if err != nil {
		shutdownMeter(meterProvider)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st := store.NewMySQL(database, appMetrics)

	return &app{
		cfg:           cfg,
		db:            database,
		metrics:       appMetrics,
		accounts:      services.NewAccountService(st, appMetrics),
		storefront:    services.NewStorefrontService(st, appMetrics),
		purchases:     services.NewPurchaseService(st, appMetrics),
		meterProvider: meterProvider,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	shutdownMeter(a.meterProvider)
}

func shutdownMeter(mp *sdkmetric.MeterProvider) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down meter provider: %v", err)
	}
}
