package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/moabank/counsel/internal/db"
	"github.com/moabank/counsel/internal/notify"
	"github.com/moabank/counsel/internal/retention"
	"github.com/moabank/counsel/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Counsel API server",
		Long:  "Migrates the schema, starts the retention scheduler and queue watcher, and serves the dispatch API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "counsel.yaml", "path to Counsel config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default: server.port from config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	scheduler, err := retention.NewScheduler(retention.SchedulerOpts{
		DB:       gormDB,
		Schedule: cfg.Retention.Schedule,
		Days:     cfg.Retention.Days,
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()
	fmt.Fprintf(out, "Retention: purging sessions closed over %d days ago (schedule %q)\n",
		cfg.Retention.Days, cfg.Retention.Schedule)

	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return err
	}
	if notifier != nil && cfg.Dispatch.QueueAlertThreshold > 0 {
		defer notifier.Close()
		watcher, err := notify.NewQueueWatcher(notify.WatcherOpts{
			DB:        gormDB,
			Notifier:  notifier,
			Threshold: cfg.Dispatch.QueueAlertThreshold,
		})
		if err != nil {
			return err
		}
		go watcher.Run(ctx)
		fmt.Fprintf(out, "Queue alerts: %s when %d or more sessions are waiting\n",
			cfg.Notify.Platform, cfg.Dispatch.QueueAlertThreshold)
	}

	return server.Start(ctx, server.StartOpts{
		DB:                       gormDB,
		Port:                     port,
		Out:                      out,
		ReleaseConsultantOnClose: cfg.ReleaseOnClose(),
	})
}
