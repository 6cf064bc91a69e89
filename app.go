package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kwv/lloydmesh/lloyd"
	"github.com/kwv/lloydmesh/mesh"
)

// App encapsulates the application state and dependencies
type App struct {
	Config    *mesh.Config
	Session   *mesh.Session
	Publisher *mesh.Publisher
	Stdout    io.Writer

	opts       AppOptions
	mqttClient mqtt.Client
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{Stdout: os.Stdout}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.opts = opts
}

// setup loads the config, applies flag overrides and starts a session over
// the input points, read from a file or an http(s) URL
func (a *App) setup(ctx context.Context) error {
	cfg := mesh.DefaultConfig()
	if a.opts.ConfigFile != "" {
		loaded, err := mesh.LoadConfig(a.opts.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.opts.Iterations > 0 {
		cfg.Iterations = a.opts.Iterations
	}
	if a.opts.Tolerance > 0 {
		cfg.Tolerance = a.opts.Tolerance
	}
	if a.opts.HTTPPort > 0 {
		cfg.HTTP.Port = a.opts.HTTPPort
	}
	a.Config = cfg

	points, err := mesh.LoadPoints(ctx, a.opts.InputFile)
	if err != nil {
		return err
	}

	fieldOpts := []lloyd.Option{lloyd.WithLogger(log.Default())}
	if cfg.Workers > 0 {
		fieldOpts = append(fieldOpts, lloyd.WithWorkers(cfg.Workers))
	}
	region, err := cfg.BuildRegion()
	if err != nil {
		return fmt.Errorf("building %s region: %w", cfg.Region.Mode, err)
	}
	if region != nil {
		fieldOpts = append(fieldOpts, lloyd.WithRegion(region))
	}

	session, err := mesh.NewSession(points, fieldOpts...)
	if err != nil {
		return fmt.Errorf("starting session over %s: %w", a.opts.InputFile, err)
	}
	a.Session = session

	log.Info("Loaded points", "file", a.opts.InputFile, "count", len(points), "region", cfg.Region.Mode)
	return nil
}

// connectPublisher connects to the configured broker. It returns
// mesh.ErrMQTTDisabled when no broker is configured.
func (a *App) connectPublisher() error {
	client, err := mesh.Connect(a.Config.MQTT)
	if err != nil {
		return err
	}
	a.mqttClient = client
	a.Publisher = mesh.NewPublisher(client, a.Config.MQTT.PublishPrefix)
	return nil
}

func (a *App) close() {
	mesh.Disconnect(a.mqttClient)
}

// RunRelax relaxes the input points and writes the requested outputs
func (a *App) RunRelax(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	if a.opts.Publish {
		if err := a.connectPublisher(); err != nil {
			return err
		}
	}
	defer a.close()

	start := time.Now()
	snap := a.Session.Snapshot()
	for i := 0; i < a.Config.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		snap, err = a.Session.Relax(1)
		if err != nil {
			return err
		}
		if a.Config.Tolerance > 0 && snap.Displacement <= a.Config.Tolerance {
			log.Debug("Converged", "iteration", snap.Iteration, "displacement", snap.Displacement)
			break
		}
	}
	log.Info("Relaxation finished",
		"run", snap.RunID,
		"iterations", snap.Iteration,
		"displacement", snap.Displacement,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if err := a.writeOutputs(); err != nil {
		return err
	}

	if a.Publisher != nil {
		if err := a.Publisher.PublishSnapshot(snap); err != nil {
			return err
		}
		log.Info("Published snapshot", "topic", a.Publisher.PointsTopic())
	}
	return nil
}

func (a *App) writeOutputs() error {
	points := a.Session.Points()

	if a.opts.OutputFile == "" {
		if err := mesh.WritePoints(a.Stdout, points); err != nil {
			return fmt.Errorf("writing points: %w", err)
		}
	} else {
		if err := mesh.WritePointsFile(a.opts.OutputFile, points); err != nil {
			return err
		}
		log.Info("Wrote points", "file", a.opts.OutputFile)
	}

	cells := a.Session.Cells()
	region := a.Session.Region()

	if a.opts.GeoJSONFile != "" {
		geoCells := cells
		if a.opts.Simplify > 0 {
			geoCells = mesh.SimplifyCells(cells, a.opts.Simplify)
		}
		fc := mesh.DiagramFeatureCollection(region, points, geoCells)
		if err := mesh.WriteGeoJSONFile(a.opts.GeoJSONFile, fc); err != nil {
			return err
		}
		log.Info("Wrote GeoJSON", "file", a.opts.GeoJSONFile, "features", len(fc.Features))
	}

	renderer := mesh.NewVectorRenderer(region, points, cells)
	renderer.ApplyConfig(a.Config.Render)

	if a.opts.SVGFile != "" {
		if err := writeFile(a.opts.SVGFile, renderer.RenderToSVG); err != nil {
			return fmt.Errorf("rendering SVG: %w", err)
		}
		log.Info("Wrote SVG", "file", a.opts.SVGFile)
	}
	if a.opts.PNGFile != "" {
		if err := writeFile(a.opts.PNGFile, renderer.RenderToPNG); err != nil {
			return fmt.Errorf("rendering PNG: %w", err)
		}
		log.Info("Wrote PNG", "file", a.opts.PNGFile)
	}
	return nil
}

// writeFile creates path and hands it to render
func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RunServe serves the session over HTTP until ctx is cancelled
func (a *App) RunServe(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}

	switch err := a.connectPublisher(); {
	case errors.Is(err, mesh.ErrMQTTDisabled):
		log.Info("MQTT publishing disabled")
	case err != nil:
		log.Warn("MQTT unavailable, serving without publishing", "err", err)
	}
	defer a.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.HTTP.Port),
		Handler:           newHTTPServer(a.Session, a.Publisher, a.Config),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "run", a.Session.RunID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}
