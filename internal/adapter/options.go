package adapter

import "log/slog"

// DefaultWorkers bounds concurrent invocations per adapter
const DefaultWorkers = 10

// Option is a functional option shared by the collector adapters
type Option func(*options)

type options struct {
	workers        int
	netshPath      string
	powerShellPath string
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		workers:        DefaultWorkers,
		netshPath:      "netsh",
		powerShellPath: "powershell",
		logger:         slog.Default(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWorkers sets the size of the per-adapter worker pool.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithNetshPath sets the netsh executable
func WithNetshPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.netshPath = path
		}
	}
}

// WithPowerShellPath sets the PowerShell executable, e.g. "pwsh"
func WithPowerShellPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.powerShellPath = path
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
