package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/giobyte8/gallery-thumbnailer/internal/galleries"
	"github.com/giobyte8/gallery-thumbnailer/internal/notifier"
	"github.com/giobyte8/gallery-thumbnailer/internal/telemetry"
	thumbsgen "github.com/giobyte8/gallery-thumbnailer/internal/thumbs_gen"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Preset bundles the defaults of one deployment of the generator.
type Preset string

const (
	// Static site build: 800px, '.jpeg' names, generated once
	PresetClient Preset = "client"

	// Server side: 400px, source extension kept, regenerated when stale
	PresetServer Preset = "server"
)

type Engine string

const (
	EngineImaging  Engine = "imaging"
	EngineLilliput Engine = "lilliput"
)

type Config struct {
	Preset Preset

	// Project root, galleries live under GalleriesDir inside it
	ProjectRoot  string
	GalleriesDir string

	ExcludedGallery string
	SkipHidden      bool

	MaxSize    int
	Naming     galleries.NamingPolicy
	Regen      galleries.RegenPolicy
	Engine     Engine
	AutoOrient bool

	Telemetry telemetry.TelemetryConfig

	AMQPEnabled bool
	AMQP        notifier.AMQPConfig
}

// PresetDefaults returns the configuration of a named preset with an
// empty project root.
func PresetDefaults(preset Preset) (Config, error) {
	cfg := Config{
		Preset:     preset,
		Engine:     EngineImaging,
		AutoOrient: true,
	}

	switch preset {
	case PresetClient:
		cfg.GalleriesDir = filepath.Join("public", "attached_assets", "galleries")
		cfg.ExcludedGallery = "Bat_Mitzvah"
		cfg.SkipHidden = true
		cfg.MaxSize = thumbsgen.ClientMaxSize
		cfg.Naming = galleries.NamingForceJpeg
		cfg.Regen = galleries.RegenIfMissing
	case PresetServer:
		cfg.GalleriesDir = filepath.Join(
			"client", "public", "attached_assets", "galleries",
		)
		cfg.ExcludedGallery = "Bat_Mitsva"
		cfg.SkipHidden = false
		cfg.MaxSize = thumbsgen.ServerMaxSize
		cfg.Naming = galleries.NamingPreserveExt
		cfg.Regen = galleries.RegenIfStale
	default:
		return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, preset)
	}

	return cfg, nil
}

// FromEnv builds the configuration from the preset named by
// THUMBS_PRESET and applies any per-setting override. getenv returns
// an empty string for unset variables, os.Getenv fits.
func FromEnv(getenv func(string) string) (Config, error) {
	presetName := strings.ToLower(strings.TrimSpace(getenv("THUMBS_PRESET")))
	if presetName == "" {
		presetName = string(PresetClient)
	}

	cfg, err := PresetDefaults(Preset(presetName))
	if err != nil {
		return Config{}, err
	}

	cfg.ProjectRoot = getenv("PROJECT_ROOT")
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve working directory: %w", err)
		}
	}

	if v := getenv("THUMBS_GALLERIES_DIR"); v != "" {
		cfg.GalleriesDir = v
	}

	if v, ok := lookup(getenv, "THUMBS_EXCLUDE_GALLERY"); ok {
		cfg.ExcludedGallery = v
	}

	if v := getenv("THUMBS_SKIP_HIDDEN"); v != "" {
		cfg.SkipHidden, err = parseBool("THUMBS_SKIP_HIDDEN", v)
		if err != nil {
			return Config{}, err
		}
	}

	if v := getenv("THUMBS_MAX_SIZE"); v != "" {
		size, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf(
				"%w: THUMBS_MAX_SIZE %q is not an integer",
				ErrInvalidConfig,
				v,
			)
		}
		cfg.MaxSize = size
	}

	if v := getenv("THUMBS_NAMING"); v != "" {
		cfg.Naming, err = galleries.ParseNamingPolicy(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if v := getenv("THUMBS_REGEN_POLICY"); v != "" {
		cfg.Regen, err = galleries.ParseRegenPolicy(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if v := getenv("THUMBS_ENGINE"); v != "" {
		cfg.Engine = Engine(strings.ToLower(strings.TrimSpace(v)))
	}

	if v := getenv("THUMBS_AUTO_ORIENT"); v != "" {
		cfg.AutoOrient, err = parseBool("THUMBS_AUTO_ORIENT", v)
		if err != nil {
			return Config{}, err
		}
	}

	cfg.Telemetry = telemetry.TelemetryConfig{
		OtelEnabled:           getenv("OTEL_ENABLED") == "true",
		OtelCollectorEndpoint: getenv("OTEL_COLLECTOR_GRPC_ENDPOINT"),
	}

	cfg.AMQPEnabled = getenv("AMQP_ENABLED") == "true"
	cfg.AMQP = notifier.AMQPConfig{
		AMQPUri:    prepareAMQPUri(getenv),
		Exchange:   getenv("AMQP_EXCHANGE"),
		RoutingKey: getenv("AMQP_ROUTING_KEY"),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.MaxSize <= 0 {
		return fmt.Errorf(
			"%w: max size must be a positive integer, got %d",
			ErrInvalidConfig,
			c.MaxSize,
		)
	}

	if c.ProjectRoot == "" {
		return fmt.Errorf("%w: project root is empty", ErrInvalidConfig)
	}

	switch c.Engine {
	case EngineImaging, EngineLilliput:
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}

	if c.Telemetry.OtelEnabled && c.Telemetry.OtelCollectorEndpoint == "" {
		return fmt.Errorf(
			"%w: OTEL_COLLECTOR_GRPC_ENDPOINT is required when OTEL_ENABLED",
			ErrInvalidConfig,
		)
	}

	return nil
}

// GalleriesRoot is the directory holding one folder per gallery.
func (c Config) GalleriesRoot() string {
	if filepath.IsAbs(c.GalleriesDir) {
		return c.GalleriesDir
	}

	return filepath.Join(c.ProjectRoot, c.GalleriesDir)
}

func (c Config) GalleryFilter() galleries.Filter {
	return galleries.Filter{
		ExcludedGallery: c.ExcludedGallery,
		SkipHidden:      c.SkipHidden,
	}
}

func prepareAMQPUri(getenv func(string) string) string {
	if getenv("RABBITMQ_HOST") == "" {
		return ""
	}

	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		getenv("RABBITMQ_USER"),
		getenv("RABBITMQ_PASS"),
		getenv("RABBITMQ_HOST"),
		getenv("RABBITMQ_PORT"),
	)
}

// lookup lets a variable be set to a single '-' to clear a preset
// value, since an empty value reads as unset.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch v {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return v, true
	}
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf(
			"%w: %s %q is not a boolean",
			ErrInvalidConfig,
			key,
			value,
		)
	}

	return b, nil
}
