package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"

	"cloudeng.io/cmdutil"
	"cloudeng.io/logging/ctxlog"

	"github.com/klabast/wb-services/widecal/internal/app"
	"github.com/klabast/wb-services/widecal/internal/calendar"
	"github.com/klabast/wb-services/widecal/internal/commands"
	"github.com/klabast/wb-services/widecal/internal/events"
	"github.com/klabast/wb-services/widecal/internal/locale"
	"github.com/klabast/wb-services/widecal/internal/store"
)

func main() {
	// Check for subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hash-password":
			if err := commands.HashPassword(os.Args[2:]); err != nil {
				cmdutil.Exit("Error: %v", err)
			}
			return
		case "grid":
			if err := commands.Grid(os.Args[2:]); err != nil {
				cmdutil.Exit("Error: %v", err)
			}
			return
		}
	}

	configPath := flag.String("config", "", "Path to the YAML config file")
	port := flag.Int("port", 0, "Port to listen on (overrides listen in the config)")
	edit := flag.Bool("edit", false, "Enable edit mode (default is serve mode)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		cmdutil.Exit("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Listen = fmt.Sprintf(":%d", *port)
	}
	if err := cfg.Validate(); err != nil {
		cmdutil.Exit("Invalid config %s:\n%v", *configPath, err)
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		cmdutil.Exit("Failed to create logger: %v", err)
	}
	defer logger.Close()
	logger.LogBuildInfo()

	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger.Logger))
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt, syscall.SIGTERM)

	if err := run(ctx, cfg, *edit); err != nil {
		logger.Error("widecal failed", "error", err)
		logger.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg app.Config, edit bool) error {
	logger := ctxlog.Logger(ctx)
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	locales := locale.Builtin()
	if cfg.Locales != "" {
		extra, err := locale.LoadFile(cfg.Locales)
		if err != nil {
			logger.Warn("error loading locales", "file", cfg.Locales, "error", err)
		}
		locales = locales.Merge(extra)
	}

	var kv calendar.Store = store.NewMemory()
	if cfg.State.File != "" {
		kv = store.NewFile(cfg.State.File)
	}

	file, sources := cfg.EventSources(loc)
	coll := events.NewCollection(loc, sources...)
	if err := coll.Load(); err != nil {
		logger.Warn("error loading event sources", "error", err)
	}

	var auth *app.Auth
	if edit {
		if auth, err = app.LoadAuth(logger); err != nil {
			return fmt.Errorf("failed to load auth credentials: %w", err)
		}
	}

	srv, err := app.NewServer(cfg, app.Options{
		Locales:  locales,
		Store:    kv,
		Events:   coll,
		File:     file,
		Auth:     auth,
		EditMode: edit,
	})
	if err != nil {
		return err
	}
	logger.Info("configured", "widgets", len(cfg.Widgets), "languages", locales.Languages(), "event_sources", len(sources), "timezone", loc.String())
	return srv.Run(ctx, logger)
}
