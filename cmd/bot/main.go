package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"eventposter/internal/adapters/discord"
	"eventposter/internal/application"
	"eventposter/internal/config"
	"eventposter/internal/infrastructure/database"
	"eventposter/internal/infrastructure/i18n"
	"eventposter/internal/infrastructure/memstore"
	"eventposter/internal/ports/output"
	"eventposter/pkg/timeparse"
	"eventposter/pkg/tz"
)

func main() {
	app := &cli.App{
		Name:  "eventposter",
		Usage: "Host events on Discord and let members RSVP.",
		Commands: []*cli.Command{
			runCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Connect to Discord and serve events until interrupted.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "memory", Usage: "Keep events in memory instead of PostgreSQL."},
			&cli.BoolFlag{Name: "skip-migrations", Usage: "Do not apply migrations on start."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var store output.EventStore
			if c.Bool("memory") {
				logger.Warn("using in-memory store, events are lost on exit")
				store = memstore.New()
			} else {
				if !c.Bool("skip-migrations") {
					if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
						return err
					}
				}
				pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger)
				if err != nil {
					return fmt.Errorf("failed to initialise database: %w", err)
				}
				defer pool.Close()
				store = database.NewStore(pool)
			}

			return serve(ctx, cfg, store, logger)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, setupLogger(cfg))
		},
	}
}

// serve wires ports: output adapters -> application (use cases) -> handler.
func serve(ctx context.Context, cfg *config.Config, store output.EventStore, logger *slog.Logger) error {
	tr := i18n.NewTranslator(cfg.DefaultLocale, logger)

	session, err := discord.NewSession(cfg.Token)
	if err != nil {
		return err
	}
	chat := discord.NewChatClient(session, tr, logger)

	parser := timeparse.New(tz.Default, logger)
	events := application.NewEventService(store, chat, tr, application.EventServiceConfig{
		Grace:  cfg.Grace(),
		Locale: cfg.DefaultLocale,
		Parse:  parser.Parse,
		Logger: logger,
	})
	n, err := events.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore events: %w", err)
	}
	logger.Info("events loaded", "count", n)

	interactions := application.NewInteractionService(events, store, logger)
	scheduler, err := discord.NewScheduler(cfg.SweepSchedule, events, logger)
	if err != nil {
		return err
	}
	handler := discord.NewHandler(events, interactions, tr, cfg.DefaultLocale, logger)

	return discord.NewBot(session, handler, scheduler, cfg.GuildID, logger).Run(ctx)
}

func setupLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}
