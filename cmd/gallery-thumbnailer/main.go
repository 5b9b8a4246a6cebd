package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/giobyte8/gallery-thumbnailer/internal/config"
	"github.com/giobyte8/gallery-thumbnailer/internal/notifier"
	"github.com/giobyte8/gallery-thumbnailer/internal/services"
	"github.com/giobyte8/gallery-thumbnailer/internal/telemetry"
	thumbsgen "github.com/giobyte8/gallery-thumbnailer/internal/thumbs_gen"
)

var version = "dev"

func setupLogging() {
	var log_level slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG", "debug":
		log_level = slog.LevelDebug
	case "WARN", "warn":
		log_level = slog.LevelWarn
	case "ERROR", "error":
		log_level = slog.LevelError
	default:
		log_level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     log_level,
		AddSource: false,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {

			// Format time to show only the time (HH:MM:SS)
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format("15:04:05"))
			}

			return a
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)
}

func loadEnv() {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		slog.Debug("No .env file found, using environment variables directly.")
		return
	}

	err := godotenv.Load(".env")
	if err != nil {
		slog.Error("Error loading .env file", "error", err)
		os.Exit(1)
	}
}

func prepareThumbsGenerator(cfg config.Config) thumbsgen.ThumbsGenerator {
	imagingGenerator := thumbsgen.NewImagingThumbsGenerator(cfg.AutoOrient)
	if cfg.Engine == config.EngineLilliput {
		return thumbsgen.NewLilliputThumbsGenerator(
			cfg.AutoOrient,
			imagingGenerator,
		)
	}

	return imagingGenerator
}

func preparePublisher(cfg config.Config) (notifier.EventPublisher, error) {
	if !cfg.AMQPEnabled {
		return notifier.NewNoopPublisher(), nil
	}

	return notifier.NewAMQPPublisher(cfg.AMQP)
}

func run(cliCtx *cli.Context) error {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid configuration: %v", err), 1)
	}

	if cliCtx.NArg() > 1 {
		return cli.Exit("At most one argument (project root) is accepted", 1)
	}
	if root := cliCtx.Args().First(); root != "" {
		cfg.ProjectRoot = root
	}

	ctx, cancel := signal.NotifyContext(
		cliCtx.Context,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	// Init telemetry services
	telemetrySvc, err := telemetry.NewTelemetrySvc(ctx, cfg.Telemetry)
	if err != nil {
		return cli.Exit(
			fmt.Sprintf("Failed to initialize Telemetry services: %v", err),
			1,
		)
	}
	defer func() {
		// Shutdown must flush even after a signal cancelled ctx
		if err := telemetrySvc.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Error("Failed to shutdown telemetry services", "error", err)
		}
	}()

	publisher, err := preparePublisher(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to create publisher: %v", err), 1)
	}
	if err := publisher.Start(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to start publisher: %v", err), 1)
	}
	defer publisher.Stop()

	thumbsSvc := services.NewThumbnailsService(
		services.ThumbnailsConfig{
			GalleriesRoot: cfg.GalleriesRoot(),
			Filter:        cfg.GalleryFilter(),
			MaxSize:       cfg.MaxSize,
			Naming:        cfg.Naming,
			Regen:         cfg.Regen,
		},
		prepareThumbsGenerator(cfg),
		telemetrySvc,
		publisher,
	)

	slog.Debug(
		"Configuration loaded",
		"preset", cfg.Preset,
		"projectRoot", cfg.ProjectRoot,
		"engine", cfg.Engine,
	)

	if _, err := thumbsSvc.Run(ctx); err != nil {
		// Already logged by the service
		return cli.Exit("", 1)
	}

	return nil
}

func main() {
	loadEnv()
	setupLogging()

	app := &cli.App{
		Name:      "gallery-thumbnailer",
		Usage:     "Generate thumbnails for every photo gallery",
		ArgsUsage: "[project root]",
		Version:   version,
		Description: "Walks <root>/<galleries dir>/<gallery>/ and writes a " +
			"'-thumb' JPEG next to every photo. Behaviour is configured " +
			"through environment variables (THUMBS_PRESET=client|server). " +
			"Without an argument the project root is PROJECT_ROOT, or the " +
			"current working directory when that is unset, so run it from " +
			"the project root or pass the root explicitly.",
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if !errors.As(err, &exitErr) {
			slog.Error("Thumbnailer failed", "error", err)
		}
		os.Exit(1)
	}
}
