package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/salesdeck/insight-console/internal/backend"
	"github.com/salesdeck/insight-console/internal/console"
	"github.com/salesdeck/insight-console/internal/events"
	"github.com/salesdeck/insight-console/internal/store"
	"github.com/salesdeck/insight-console/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the console server",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer utilruntime.HandleCrash()

		cfg, done, err := loadConfig()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
		defer done()

		zap.S().Info("Starting console service")
		defer zap.S().Info("Console service stopped")

		trackerCfg, err := cfg.TrackerConfig()
		if err != nil {
			return err
		}

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(cmd.Context()); err != nil {
			return fmt.Errorf("running initial migration: %w", err)
		}

		feed := events.NewFeedWriter(cfg.Service.FeedSize)
		producer := events.NewEventProducer(events.NewMultiWriter(
			feed,
			store.NewHistoryWriter(s),
			&events.StdoutWriter{},
		))
		defer func() {
			if err := producer.Close(); err != nil {
				zap.S().Warnw("failed to flush notifications", "error", err)
			}
		}()

		backendCfg := backend.NewDefault()
		backendCfg.Service.Server = cfg.Backend.URL
		backendCfg.Service.Timeout = backend.Duration{Duration: cfg.Backend.Timeout}
		if err := backendCfg.Validate(); err != nil {
			return fmt.Errorf("invalid backend settings: %w", err)
		}

		views, err := console.NewViews(backend.NewFromConfig(backendCfg), trackerCfg, tracker.WithNotifier(producer))
		if err != nil {
			return fmt.Errorf("creating views: %w", err)
		}
		defer views.Close()

		// fill the result pages before the first request, failures only delay it
		for _, name := range views.Names() {
			if err := views[name].Tracker.Refresh(cmd.Context()); err != nil {
				zap.S().Warnw("initial result load failed", "view", name, "error", err)
			}
		}

		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			return fmt.Errorf("creating listener: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		server := console.New(cfg, views, feed, s, listener)
		if err := server.Run(ctx); err != nil {
			return fmt.Errorf("running server: %w", err)
		}
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
