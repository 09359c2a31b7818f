package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/briangreenhill/mapty/internal/app"
	"github.com/briangreenhill/mapty/internal/cli"
	"github.com/briangreenhill/mapty/internal/config"
	"github.com/briangreenhill/mapty/internal/events"
	"github.com/briangreenhill/mapty/internal/logging"
	"github.com/briangreenhill/mapty/internal/mapview"
	"github.com/briangreenhill/mapty/internal/storage"
	"github.com/briangreenhill/mapty/internal/workout"
)

func main() {
	w := os.Stdout

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(w, cfg.Log.Level, cfg.Log.Format)

	if err := run(context.Background(), w, os.Args[1:], cfg, logger); err != nil {
		logger.Error("Error running mapty", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, args []string, cfg *config.Config, logger *slog.Logger) error {
	kv, err := storage.Open(ctx, storage.Options{
		Backend:    cfg.Storage.Backend,
		SQLitePath: cfg.Storage.SQLitePath,
		ValkeyAddr: cfg.Storage.ValkeyAddr,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer kv.Close()

	var publisher events.Publisher = events.Noop{}
	if cfg.Events.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			logger.Warn("nats unavailable", slog.Any("error", err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	view := mapview.New(mapview.TileLayer{
		URL:         cfg.Map.TileURL,
		Attribution: cfg.Map.Attribution,
	})

	a := app.New(logger, workout.NewRepository(kv, cfg.Storage.Key, logger), view, app.Options{
		Zoom:        cfg.Map.Zoom,
		PanDuration: cfg.Map.PanDuration,
		Publisher:   publisher,
	})

	var locator app.Locator
	if cfg.Location.Enabled {
		locator = app.StaticLocator{Enabled: true, Coords: workout.Coords{cfg.Location.Lat, cfg.Location.Lng}}
	}

	return cli.NewCLI(w, logger, a, view, locator, cfg.HTTP.Addr).Run(ctx, args)
}
