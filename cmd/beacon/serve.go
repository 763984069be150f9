// serve.go implements "beacon serve", the foreground daemon.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"beacon/internal/config"
	"beacon/internal/daemon"
	"beacon/internal/delivery"
	"beacon/internal/logging"
	"beacon/internal/notify"
)

var (
	servePort     int
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hook listener in the foreground",
	Long: `Start the daemon: bind the loopback hook listener, ingest lifecycle
events, fan out notifications, and serve the control API. Runs until
interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "hook listener port (default from config)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "log level: debug, info, warn or error")
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	if servePort > 0 {
		settings.Hooks.Port = servePort
	}
	level := settings.LogLevel()
	if serveLogLevel != "" {
		level = serveLogLevel
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(level))

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	settingsPath, err := config.SettingsPath()
	if err != nil {
		return err
	}
	handlePath, err := config.WrapperHandlePath()
	if err != nil {
		return err
	}
	inboxDir, err := config.InboxDir()
	if err != nil {
		return err
	}
	metadataRoot, err := settings.SessionMetadataRoot()
	if err != nil {
		return err
	}

	registry := daemon.NewRegistry()
	registry.SetEvictionGrace(settings.EvictionGrace())
	registry.SetSlugResolver(daemon.NewFileSlugResolver(metadataRoot))
	resolver := daemon.NewResolver(registry)

	channel := delivery.NewChannel(delivery.ChannelConfig{
		HandlePath: handlePath,
		InboxDir:   inboxDir,
		Timeout:    settings.InputTimeout(),
		InboxTTL:   settings.InboxTTL(),
		Policy: delivery.RetryPolicy{
			Base:        settings.RetryBase(),
			Multiplier:  settings.RetryMultiplier(),
			MaxAttempts: settings.RetryMaxAttempts(),
		},
		Logger: logger.With(logging.F("component", "delivery")),
	})

	senders := []notify.Notifier{notify.NewDesktop()}
	for name, command := range settings.NotificationScripts() {
		senders = append(senders, notify.NewScript(name, command))
	}
	dispatcher := notify.NewDispatcher(settings, logger.With(logging.F("component", "notify")), senders...)
	defer dispatcher.Stop(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(daemon.Options{
		Port:          settings.HookPort(),
		Version:       buildVersion(),
		Registry:      registry,
		Resolver:      resolver,
		Delivery:      channel,
		Sweeper:       channel,
		SweepInterval: settings.SweepInterval(),
		Notifier:      dispatcher,
		Replies:       notify.NewReplyRouter(resolver, channel, logger),
		PersistPort: func(port int) error {
			settings.Hooks.Port = port
			return settings.Save(settingsPath)
		},
		Logger: logger,
	})
	return d.Run(ctx)
}
