package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// AppOptions holds command-line options passed to the App
type AppOptions struct {
	ConfigFile  string
	InputFile   string
	Iterations  int     // 0 uses the config value
	Tolerance   float64 // 0 uses the config value
	OutputFile  string  // relaxed points; empty writes to stdout
	GeoJSONFile string
	SVGFile     string
	PNGFile     string
	Simplify    float64
	Publish     bool
	HTTPPort    int // 0 uses the config value
}

// AppRunner is the interface for the application logic
type AppRunner interface {
	ApplyOptions(opts AppOptions)
	RunRelax(ctx context.Context) error
	RunServe(ctx context.Context) error
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], NewApp(), os.Stderr); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and dispatches to app
func run(ctx context.Context, args []string, app AppRunner, stderr io.Writer) error {
	root := newRootCommand(app, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newLogger creates the process logger and installs it as the default
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	log.SetDefault(logger)
	return logger
}

func newRootCommand(app AppRunner, stderr io.Writer) *cobra.Command {
	var (
		opts    AppOptions
		verbose bool
	)

	root := &cobra.Command{
		Use:          "lloydmesh",
		Short:        "lloydmesh spreads points evenly with Lloyd relaxation",
		Long:         `lloydmesh moves every point to the centroid of its Voronoi cell, clipped to a bounding region, until the points are evenly spread.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			newLogger(stderr, verbose)
			return nil
		},
	}
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a YAML or TOML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	relax := &cobra.Command{
		Use:   "relax",
		Short: "Relax a point set and write the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.ApplyOptions(opts)
			return app.RunRelax(cmd.Context())
		},
	}
	relax.Flags().StringVarP(&opts.InputFile, "input", "i", "", "points file or http(s) URL (JSON or text)")
	relax.Flags().IntVarP(&opts.Iterations, "iterations", "n", 0, "iterations to run (default from config)")
	relax.Flags().Float64Var(&opts.Tolerance, "tolerance", 0, "stop once an iteration moves the points less than this in total")
	relax.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "write relaxed points to this file instead of stdout")
	relax.Flags().StringVar(&opts.GeoJSONFile, "geojson", "", "write region, cells and points as GeoJSON")
	relax.Flags().StringVar(&opts.SVGFile, "svg", "", "render the diagram to an SVG file")
	relax.Flags().StringVar(&opts.PNGFile, "png", "", "render the diagram to a PNG file")
	relax.Flags().Float64Var(&opts.Simplify, "simplify", 0, "Douglas-Peucker tolerance for GeoJSON cells")
	relax.Flags().BoolVar(&opts.Publish, "publish", false, "publish the final snapshot to MQTT")
	_ = relax.MarkFlagRequired("input")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve a relaxation session over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.ApplyOptions(opts)
			return app.RunServe(cmd.Context())
		},
	}
	serve.Flags().StringVarP(&opts.InputFile, "input", "i", "", "points file or http(s) URL (JSON or text)")
	serve.Flags().IntVarP(&opts.HTTPPort, "port", "p", 0, "HTTP port (default from config)")
	_ = serve.MarkFlagRequired("input")

	root.AddCommand(relax, serve)
	return root
}
