package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/timescam/koishi/internal/api"
	"github.com/timescam/koishi/internal/command"
	"github.com/timescam/koishi/internal/config"
	"github.com/timescam/koishi/internal/dispatch"
	"github.com/timescam/koishi/internal/events"
	"github.com/timescam/koishi/internal/i18n"
	"github.com/timescam/koishi/internal/models"
	"github.com/timescam/koishi/internal/nats"
	"github.com/timescam/koishi/internal/permissions"
	"github.com/timescam/koishi/internal/pipeline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting dispatch engine")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Localization.
	translator := i18n.New()
	if cfg.LocalePath != "" {
		if err := translator.LoadFile(cfg.LocalePath); err != nil {
			slog.Error("failed to load locale", "error", err)
			os.Exit(1)
		}
	}

	// Event bus and engine core.
	bus := events.NewBus()
	resolver := permissions.NewResolver(func() {
		bus.Publish(events.Event{Topic: events.TopicPermissionsChanged})
	})
	registry := command.NewRegistry(func(name string) {
		bus.Publish(events.Event{Topic: events.TopicCommandRemoved, Command: name})
	})
	runner := pipeline.NewRunner(translator, bus)
	dispatcher := dispatch.New(registry, resolver, runner, translator, bus)

	// Declarative permission links.
	if cfg.PermissionsPath != "" {
		links, err := config.LoadLinks(cfg.PermissionsPath)
		if err != nil {
			slog.Error("failed to load permission links", "error", err)
			os.Exit(1)
		}
		if err := config.ApplyLinks(resolver, links); err != nil {
			slog.Error("failed to apply permission links", "error", err)
			os.Exit(1)
		}
	}

	if err := registerBuiltins(dispatcher); err != nil {
		slog.Error("failed to register built-in commands", "error", err)
		os.Exit(1)
	}

	// Database.
	db, err := models.InitDB(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	// Optional NATS event bridge.
	if cfg.NATSURL != "" {
		client, err := nats.Connect(nats.DefaultConfig(cfg.NATSURL, "koishi-engine"))
		if err != nil {
			slog.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		bridge := nats.NewBridge(client, bus)
		bridge.Start(context.Background())
		defer bridge.Stop()
	}

	// HTTP server.
	srv := api.NewServer(db, dispatcher, translator, bus, api.AuthConfig{
		Secret:            cfg.JWTSecret,
		AdminPasswordHash: cfg.AdminPasswordHash,
	})

	go func() {
		if err := srv.Listen(cfg.ListenAddr); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down dispatch engine")
	if err := srv.Shutdown(); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// registerBuiltins defines the engine's own commands.
func registerBuiltins(d *dispatch.Dispatcher) error {
	echo, err := d.Command("echo", 1)
	if err != nil {
		return err
	}
	echo.Configure(func(cfg *command.Config) {
		cfg.CheckArgCount = true
		cfg.MinArgs = 1
	})
	echo.Action(func(argv *command.Argv) (string, error) {
		return strings.Join(argv.Args, " "), nil
	})

	help, err := d.Command("help", 0)
	if err != nil {
		return err
	}
	if err := help.Alias("commands"); err != nil {
		return err
	}
	help.Action(func(argv *command.Argv) (string, error) {
		names := make([]string, 0)
		for _, cmd := range d.Registry().List() {
			names = append(names, cmd.DisplayName())
		}
		return "Commands: " + strings.Join(names, ", "), nil
	})

	return nil
}
