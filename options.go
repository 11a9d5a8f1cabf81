package viewq

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/AnatoleLucet/viewq/internal"
	"github.com/AnatoleLucet/viewq/internal/config"
)

type (
	Config           = config.Config
	DispatcherConfig = config.DispatcherConfig
	AnimationSection = config.AnimationConfig
	LogConfig        = config.LogConfig
	MetricsConfig    = config.MetricsConfig
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads defaults, the TOML file at path (or config.toml in the
// usual places when path is empty) and VIEWQ_ env overrides.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// WriteConfig stores c as TOML at path.
func WriteConfig(path string, c Config) error {
	return config.Write(path, c)
}

type options struct {
	config       Config
	logger       *slog.Logger
	logOutput    io.Writer
	factory      ViewFactory
	requestFrame func()
	onError      ErrorHandler
	namespace    string
}

type Option func(*options)

func WithConfig(c Config) Option {
	return func(o *options) { o.config = c }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogOutput sends the configured logger's output to w. Logs are
// discarded by default.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

func WithViewFactory(f ViewFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithFrameRequester is called whenever a batch is dispatched. Hosts use it
// to schedule a Frame on their ui loop. It must not block.
func WithFrameRequester(fn func()) Option {
	return func(o *options) { o.requestFrame = fn }
}

// WithErrorHandler is called on the ui goroutine for every rejected operation.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

func WithMetricsNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// New creates a UIManager.
func New(opts ...Option) (*UIManager, error) {
	o := options{
		config:    config.Default(),
		logOutput: io.Discard,
		factory:   internal.MemoryViewFactory,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	easing, err := internal.EasingByName(o.config.Animation.Easing)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := o.logger
	if logger == nil {
		if logger, err = o.config.Log.NewLogger(o.logOutput); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	namespace := o.config.Metrics.Namespace
	if o.namespace != "" {
		namespace = o.namespace
	}
	metrics := internal.NewMetrics(namespace)

	queue := internal.NewOperationQueue()
	dispatcher := internal.NewDispatcher(queue, internal.DispatcherOptions{
		Factory:            o.factory,
		Logger:             logger,
		Metrics:            metrics,
		OnError:            o.onError,
		FrameBudget:        o.config.Dispatcher.FrameBudget,
		MaxBatchesPerFrame: o.config.Dispatcher.MaxBatchesPerFrame,
		AnimationsEnabled:  o.config.Animation.Enabled,
		RequestFrame:       o.requestFrame,
	})

	return &UIManager{
		queue:      queue,
		dispatcher: dispatcher,
		tags:       internal.NewTagAllocator(),
		batcher:    internal.NewBatcher(),
		metrics:    metrics,
		logger:     logger,
		animation: AnimationConfig{
			Duration: o.config.Animation.Duration,
			Easing:   easing,
			Layout:   true,
			Opacity:  true,
		},
	}, nil
}
