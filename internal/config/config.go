package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery/model"
	"github.com/signalsfoundry/orrery/timectrl"
)

// EnvPrefix namespaces environment overrides, e.g. ORRERY_WINDOW_WIDTH.
const EnvPrefix = "ORRERY"

var (
	ErrUnknownSurface = errors.New("unknown surface type")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Vec is a 3-component vector in config form.
type Vec struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

type WindowConfig struct {
	Width  int     `mapstructure:"width"`
	Height int     `mapstructure:"height"`
	Title  string  `mapstructure:"title"`
	FPS    float64 `mapstructure:"fps"`
}

type ScaleConfig struct {
	AUToUnits      float64 `mapstructure:"auToUnits"`
	SimYearSeconds float64 `mapstructure:"simYearSeconds"`
}

type CameraConfig struct {
	Eye    Vec     `mapstructure:"eye"`
	Center Vec     `mapstructure:"center"`
	Up     Vec     `mapstructure:"up"`
	FovY   float64 `mapstructure:"fovY"`
	Near   float64 `mapstructure:"near"`
	Far    float64 `mapstructure:"far"`
}

type SunConfig struct {
	Radius float64   `mapstructure:"radius"`
	Color  model.RGB `mapstructure:"color"`
	Slices int       `mapstructure:"slices"`
	Stacks int       `mapstructure:"stacks"`
}

type RenderConfig struct {
	OrbitSegments int       `mapstructure:"orbitSegments"`
	OrbitColor    model.RGB `mapstructure:"orbitColor"`
	BodySlices    int       `mapstructure:"bodySlices"`
	BodyStacks    int       `mapstructure:"bodyStacks"`
	Background    model.RGB `mapstructure:"background"`
}

type ClockConfig struct {
	Mode  string        `mapstructure:"mode"` // realtime | accelerated
	Tick  time.Duration `mapstructure:"tick"`
	Epoch time.Time     `mapstructure:"epoch"`
}

type SurfaceConfig struct {
	Type       string `mapstructure:"type"` // headless | stream
	Frames     int    `mapstructure:"frames"`
	GIFPath    string `mapstructure:"gifPath"`
	ListenAddr string `mapstructure:"listenAddr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"serviceName"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

// Config is the full viewer configuration.
type Config struct {
	Window  WindowConfig  `mapstructure:"window"`
	Scale   ScaleConfig   `mapstructure:"scale"`
	Camera  CameraConfig  `mapstructure:"camera"`
	Sun     SunConfig     `mapstructure:"sun"`
	Render  RenderConfig  `mapstructure:"render"`
	Clock   ClockConfig   `mapstructure:"clock"`
	Surface SurfaceConfig `mapstructure:"surface"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`

	// Catalog is a JSON body catalog file; it takes precedence over Bodies.
	Catalog string `mapstructure:"catalog"`
	// Bodies replaces the built-in catalog when non-empty.
	Bodies []model.OrbitalBody `mapstructure:"bodies"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("window.width", 1000)
	v.SetDefault("window.height", 1000)
	v.SetDefault("window.title", "Solar System - Top Down")
	v.SetDefault("window.fps", 60.0)

	v.SetDefault("scale.auToUnits", 2.0)
	v.SetDefault("scale.simYearSeconds", 20.0)

	v.SetDefault("camera.eye.x", 0.0)
	v.SetDefault("camera.eye.y", 60.0)
	v.SetDefault("camera.eye.z", 0.01)
	v.SetDefault("camera.center.x", 0.0)
	v.SetDefault("camera.center.y", 0.0)
	v.SetDefault("camera.center.z", 0.0)
	v.SetDefault("camera.up.x", 0.0)
	v.SetDefault("camera.up.y", 0.0)
	v.SetDefault("camera.up.z", -1.0)
	v.SetDefault("camera.fovY", 45.0)
	v.SetDefault("camera.near", 0.1)
	v.SetDefault("camera.far", 500.0)

	v.SetDefault("sun.radius", 1.2)
	v.SetDefault("sun.color.r", 1.0)
	v.SetDefault("sun.color.g", 1.0)
	v.SetDefault("sun.color.b", 0.0)
	v.SetDefault("sun.slices", 30)
	v.SetDefault("sun.stacks", 30)

	v.SetDefault("render.orbitSegments", 240)
	v.SetDefault("render.orbitColor.r", 0.45)
	v.SetDefault("render.orbitColor.g", 0.45)
	v.SetDefault("render.orbitColor.b", 0.45)
	v.SetDefault("render.bodySlices", 18)
	v.SetDefault("render.bodyStacks", 18)
	v.SetDefault("render.background.r", 0.0)
	v.SetDefault("render.background.g", 0.0)
	v.SetDefault("render.background.b", 0.0)

	v.SetDefault("clock.mode", "realtime")
	v.SetDefault("clock.tick", "16ms")
	v.SetDefault("clock.epoch", "2000-01-01T12:00:00Z")

	v.SetDefault("surface.type", "headless")
	v.SetDefault("surface.frames", 0)
	v.SetDefault("surface.gifPath", "")
	v.SetDefault("surface.listenAddr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "orrery")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sampleRatio", 1.0)

	v.SetDefault("catalog", "")
}

// RegisterFlags adds the command-line overrides to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (json, yaml or toml)")
	fs.String("surface", "headless", "presentation surface: headless or stream")
	fs.Int("frames", 0, "stop after this many frames (0 runs until interrupted)")
	fs.Float64("fps", 60, "target frames per second")
	fs.Int("width", 1000, "viewport width in pixels")
	fs.Int("height", 1000, "viewport height in pixels")
	fs.String("gif", "", "write the rendered frames to this GIF file on exit (headless)")
	fs.String("listen", ":8080", "HTTP address for the frame stream (stream surface)")
	fs.String("clock", "realtime", "clock mode: realtime or accelerated")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("metrics-addr", "", "HTTP address for Prometheus /metrics (empty disables)")
	fs.String("catalog", "", "JSON file of orbital bodies replacing the built-in solar system")
}

var flagKeys = map[string]string{
	"surface":      "surface.type",
	"frames":       "surface.frames",
	"fps":          "window.fps",
	"width":        "window.width",
	"height":       "window.height",
	"gif":          "surface.gifPath",
	"listen":       "surface.listenAddr",
	"clock":        "clock.mode",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics-addr": "metrics.addr",
	"catalog":      "catalog",
}

// Load reads defaults, an optional config file, ORRERY_* environment
// variables and explicitly set flags, in increasing precedence. path may be
// empty, in which case the --config flag (if any) is consulted.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %q: %w", name, err)
				}
			}
		}
		if path == "" {
			if f := fs.Lookup("config"); f != nil {
				path = f.Value.String()
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the rest of the program relies on.
func (c Config) Validate() error {
	switch c.Surface.Type {
	case "headless", "stream":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSurface, c.Surface.Type)
	}
	switch {
	case c.Window.Width <= 0 || c.Window.Height < 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Window.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %v", ErrInvalidConfig, c.Window.FPS)
	case c.Scale.AUToUnits <= 0 || c.Scale.SimYearSeconds <= 0:
		return fmt.Errorf("%w: scale constants must be positive", ErrInvalidConfig)
	case c.Surface.Frames < 0:
		return fmt.Errorf("%w: frames must not be negative", ErrInvalidConfig)
	case c.Render.OrbitSegments < 3:
		return fmt.Errorf("%w: orbitSegments must be at least 3", ErrInvalidConfig)
	case c.Clock.Tick <= 0:
		return fmt.Errorf("%w: clock tick must be positive", ErrInvalidConfig)
	}
	if _, err := timectrl.ParseMode(c.Clock.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
