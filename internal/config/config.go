package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config holds the ui manager configuration.
type Config struct {
	Dispatcher DispatcherConfig
	Animation  AnimationConfig
	Log        LogConfig
	Metrics    MetricsConfig
}

// DispatcherConfig bounds the work done in one frame.
type DispatcherConfig struct {
	// wall time spent draining batches before yielding the frame, 0 drains all
	FrameBudget time.Duration `mapstructure:"frame_budget"`
	// 0 means no bound
	MaxBatchesPerFrame int `mapstructure:"max_batches_per_frame"`
}

type AnimationConfig struct {
	Enabled  bool
	Duration time.Duration
	Easing   string
}

type LogConfig struct {
	// debug, info, warn or error
	Level string
	// text or json
	Format string
}

type MetricsConfig struct {
	Namespace string
}

func Default() Config {
	return Config{
		Dispatcher: DispatcherConfig{FrameBudget: 8 * time.Millisecond},
		Animation:  AnimationConfig{Enabled: true, Duration: 300 * time.Millisecond, Easing: "easeInEaseOut"},
		Log:        LogConfig{Level: "warn", Format: "text"},
		Metrics:    MetricsConfig{Namespace: "viewq"},
	}
}

// Load reads configuration from defaults, an optional TOML file and env.
// Env var overrides use prefix VIEWQ_, e.g. VIEWQ_DISPATCHER_FRAME_BUDGET.
// An empty path looks for config.toml in the working directory and in
// $HOME/.config/viewq; a missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("dispatcher.frame_budget", def.Dispatcher.FrameBudget)
	v.SetDefault("dispatcher.max_batches_per_frame", def.Dispatcher.MaxBatchesPerFrame)
	v.SetDefault("animation.enabled", def.Animation.Enabled)
	v.SetDefault("animation.duration", def.Animation.Duration)
	v.SetDefault("animation.easing", def.Animation.Easing)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("metrics.namespace", def.Metrics.Namespace)

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "viewq"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("VIEWQ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit path has to exist
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Dispatcher.FrameBudget < 0 {
		return fmt.Errorf("dispatcher.frame_budget must not be negative, got %s", c.Dispatcher.FrameBudget)
	}
	if c.Dispatcher.MaxBatchesPerFrame < 0 {
		return fmt.Errorf("dispatcher.max_batches_per_frame must not be negative, got %d", c.Dispatcher.MaxBatchesPerFrame)
	}
	if c.Animation.Duration <= 0 {
		return fmt.Errorf("animation.duration must be positive, got %s", c.Animation.Duration)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// file mirrors Config with durations spelled the way Load parses them.
type file struct {
	Dispatcher struct {
		FrameBudget        string `toml:"frame_budget"`
		MaxBatchesPerFrame int    `toml:"max_batches_per_frame"`
	} `toml:"dispatcher"`
	Animation struct {
		Enabled  bool   `toml:"enabled"`
		Duration string `toml:"duration"`
		Easing   string `toml:"easing"`
	} `toml:"animation"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	Metrics struct {
		Namespace string `toml:"namespace"`
	} `toml:"metrics"`
}

// Write encodes c as TOML at path, creating the directory if needed.
func Write(path string, c Config) error {
	var f file
	f.Dispatcher.FrameBudget = c.Dispatcher.FrameBudget.String()
	f.Dispatcher.MaxBatchesPerFrame = c.Dispatcher.MaxBatchesPerFrame
	f.Animation.Enabled = c.Animation.Enabled
	f.Animation.Duration = c.Animation.Duration.String()
	f.Animation.Easing = c.Animation.Easing
	f.Log.Level = c.Log.Level
	f.Log.Format = c.Log.Format
	f.Metrics.Namespace = c.Metrics.Namespace

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the structured logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(c.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}
