package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"clientparser/internal/adapter"
	"clientparser/internal/config"
	"clientparser/internal/repository"
	"clientparser/internal/repository/sqlstore"
	"clientparser/internal/service"
	"clientparser/internal/watcher"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		verbose    bool
		interval   int
		configPath string
		envFile    string
		exportPath string
	)
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.IntVar(&interval, "i", 0, "seconds between cycle starts (0 runs once)")
	flag.IntVar(&interval, "interval", 0, "seconds between cycle starts (0 runs once)")
	flag.StringVar(&configPath, "c", "", "YAML config file")
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&exportPath, "o", "", "also write each published snapshot to this .json or .yaml file")
	flag.StringVar(&exportPath, "output", "", "also write each published snapshot to this .json or .yaml file")
	flag.StringVar(&envFile, "env-file", "", "dotenv file layered over the config file (default ./.env, then .env beside the config file)")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opts := config.LoadOptions{ConfigPath: configPath, EnvFile: envFile}
	cfg, sources, err := config.Load(opts)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}
	if intervalSet() {
		cfg.Interval = config.Duration(time.Duration(interval) * time.Second)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, cfg.DatabaseURI, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer store.Close()

	runner, err := adapter.NewRunner(cfg, logger)
	if err != nil {
		logger.Error("failed to create command runner", "error", err)
		return 1
	}
	if closer, ok := runner.(io.Closer); ok {
		defer closer.Close()
	}

	registry := adapter.NewRegistry(logger)
	if err := registry.Replace(adapter.FromConfig(cfg, runner, logger)...); err != nil {
		logger.Error("failed to register adapters", "error", err)
		return 1
	}
	logger.Info("adapters registered", "adapters", registry.ListAdapters(), "scopes", len(cfg.Scopes))

	publisher := service.NewPublisher(store, repository.NewTableRouter(), logger)
	if exportPath != "" {
		if err := publisher.ExportTo(exportPath); err != nil {
			logger.Error("invalid export path", "error", err)
			return 1
		}
	}

	bus := service.NewEventBus()
	events := make(chan service.Event, 32)
	bus.Subscribe(events)
	go service.NewCycleTracker(logger).Run(ctx, events)

	scheduler := service.NewScheduler(registry, publisher,
		service.WithEventBus(bus),
		service.WithInterval(cfg.Interval.Duration()),
		service.WithPollInterval(cfg.PollInterval.Duration()),
		service.WithSchedulerLogger(logger),
	)

	if cfg.Interval > 0 {
		if files := sources.Files(); len(files) > 0 {
			r := &reloader{opts: opts, current: cfg, registry: registry, runner: runner, logger: logger}
			w := watcher.New(r.reload, files...).WithLogger(logger)
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("config watcher stopped", "error", err)
				}
			}()
		}
	}

	if err := scheduler.Run(ctx); err != nil {
		logger.Error("collection failed", "error", err)
		return 1
	}
	return 0
}

// intervalSet reports whether -i/--interval was given explicitly
func intervalSet() bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "i" || f.Name == "interval" {
			set = true
		}
	})
	return set
}

// reloader rebuilds the adapter set when a config file changes. The
// database and the command runner are fixed for the process lifetime.
type reloader struct {
	opts     config.LoadOptions
	registry *adapter.Registry
	runner   adapter.Runner
	logger   *slog.Logger

	mu      sync.Mutex
	current *config.Config
}

func (r *reloader) reload(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, _, err := config.Load(r.opts)
	if err == nil {
		next.Interval = r.current.Interval
		err = next.Validate()
	}
	if err != nil {
		r.logger.Warn("config reload rejected", "path", path, "error", err)
		return
	}

	if next.DatabaseURI != r.current.DatabaseURI {
		r.logger.Warn("DATABASE_URI changed; restart to apply")
	}
	if next.Remote != r.current.Remote {
		r.logger.Warn("remote host settings changed; restart to apply")
	}

	if err := r.registry.Replace(adapter.FromConfig(next, r.runner, r.logger)...); err != nil {
		r.logger.Warn("config reload rejected", "path", path, "error", fmt.Errorf("replace adapters: %w", err))
		return
	}
	r.current = next
	r.logger.Info("configuration reloaded", "path", path, "scopes", len(next.Scopes), "reverse_zones", len(next.DNSReverseZones))
}
