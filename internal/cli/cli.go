// Package cli implements the mapty command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/mapty/internal/api"
	"github.com/briangreenhill/mapty/internal/app"
	"github.com/briangreenhill/mapty/internal/importer"
	"github.com/briangreenhill/mapty/internal/mapview"
	"github.com/briangreenhill/mapty/internal/render"
	"github.com/briangreenhill/mapty/internal/workout"
)

type CLI struct {
	writer  io.Writer
	logger  *slog.Logger
	app     *app.App
	view    *mapview.View
	locator app.Locator
	addr    string
}

// NewCLI builds the command line. locator may be nil, in which case the
// server waits for the browser to report its position.
func NewCLI(w io.Writer, logger *slog.Logger, a *app.App, view *mapview.View, locator app.Locator, addr string) *CLI {
	return &CLI{
		writer:  w,
		logger:  logger,
		app:     a,
		view:    view,
		locator: locator,
		addr:    addr,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	root := c.Command()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "mapty",
		Short:         "Log running and cycling workouts on a map",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.app.Hydrate(cmd.Context())
		},
	}
	root.SetOut(c.writer)
	root.SetErr(c.writer)

	root.AddCommand(c.apiCommand(), c.addCommand(), c.importCommand(), c.listCommand())
	return root
}

func (c *CLI) apiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Serve the map UI and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.locator != nil {
				c.app.Locate(cmd.Context(), c.locator)
			}
			return c.RunAPI(cmd.Context())
		},
	}
}

func (c *CLI) RunAPI(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	mux := api.NewAPI(c.logger, c.app, c.view)

	server := &http.Server{
		Addr:              c.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		c.logger.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("Error shutting down server", slog.Any("error", err))
		}
	}()

	c.logger.Info("Starting server", slog.String("addr", c.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		c.logger.Error("Error starting server", slog.Any("error", err))
		cancel()
		return err
	}

	return nil
}

func (c *CLI) addCommand() *cobra.Command {
	var (
		lat, lng float64
		form     workout.Form
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a workout at the given coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.submit(cmd.Context(), workout.Coords{lat, lng}, form)
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&lat, "lat", 0, "latitude of the workout")
	fs.Float64Var(&lng, "lng", 0, "longitude of the workout")
	fs.StringVar(&form.Kind, "type", string(workout.KindRunning), "running or cycling")
	fs.StringVar(&form.Distance, "distance", "", "distance in km")
	fs.StringVar(&form.Duration, "duration", "", "duration in min")
	fs.StringVar(&form.Cadence, "cadence", "", "cadence in steps/min (running)")
	fs.StringVar(&form.Elevation, "elevation", "", "elevation gain in m (cycling)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func (c *CLI) importCommand() *cobra.Command {
	var gpxFile, kind, cadence string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Log a workout from a GPX track",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.logger.Info("Importing gpx", slog.String("gpx_file", gpxFile))

			data, err := importer.ReadFile(gpxFile)
			if err != nil {
				return err
			}

			form, coords, err := importer.FromGPX(data, kind, cadence)
			if err != nil {
				return err
			}

			return c.submit(cmd.Context(), coords, form)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&gpxFile, "gpx", "", "path to gpx file")
	fs.StringVar(&kind, "type", string(workout.KindRunning), "running or cycling")
	fs.StringVar(&cadence, "cadence", "", "cadence in steps/min (running)")
	_ = cmd.MarkFlagRequired("gpx")

	return cmd
}

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every logged workout",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := c.app.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(c.writer, "No workouts yet")
				return nil
			}
			return render.Text(c.writer, entries...)
		},
	}
}

// submit plays the browser's sequence headlessly: center the map on the
// workout, click there, then submit the form.
func (c *CLI) submit(ctx context.Context, coords workout.Coords, form workout.Form) error {
	c.app.LoadMap(coords)
	if err := c.app.MapClick(coords); err != nil {
		return err
	}

	created, err := c.app.Submit(ctx, form)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.writer, "Workout added successfully")
	return render.Text(c.writer, render.EntryFor(created))
}
