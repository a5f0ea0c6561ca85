// Package main runs the kitchen service: it resolves ingredients, checks
// recipe feasibility against pantries and serves the ops endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/container"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/kitchen/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("KITCHEN_CONFIG"), "Configuration file path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config path] [serve|migrate up|migrate down|migrate status]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || args[0] == "serve" {
		serve(*configPath)
		return
	}
	if args[0] == "migrate" && len(args) == 2 {
		if err := migrate(*configPath, args[1]); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}
	flag.Usage()
	os.Exit(2)
}

func serve(configPath string) {
	var cfg *config.Config
	app := fx.New(
		container.Module,
		fx.Supply(container.ConfigPath(configPath)),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Populate(&cfg),
	)
	if err := app.Err(); err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	timeout := cfg.Monitoring.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	stopCtx, cancelStop := context.WithTimeout(context.Background(), timeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatalf("Failed to stop application gracefully: %v", err)
	}
	os.Exit(exitCode)
}

// migrate runs the embedded schema migrations without starting the service
func migrate(configPath, direction string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations apply to postgres only; driver is %q", cfg.Database.Driver)
	}

	zl, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat, Service: cfg.App.Name})
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	cm, err := postgres.NewConnectionManager(cfg, nil, zl)
	if err != nil {
		return err
	}
	defer cm.Close()

	m, err := migrations.New(cm.SQLDB(), zl)
	if err != nil {
		return err
	}

	switch direction {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "status":
		status, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t latest=%d pending=%v\n", status.Version, status.Dirty, status.Latest, status.Pending)
		return nil
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
}
