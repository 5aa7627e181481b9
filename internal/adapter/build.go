package adapter

import (
	"log/slog"

	"clientparser/internal/config"
)

// NewRunner returns an SSHRunner when a remote host is configured and a
// LocalRunner otherwise
func NewRunner(cfg *config.Config, logger *slog.Logger) (Runner, error) {
	if !cfg.Remote.Enabled() {
		return NewLocalRunner(), nil
	}
	return NewSSHRunner(SSHConfig{
		Host:           cfg.Remote.Host,
		Port:           cfg.Remote.Port,
		User:           cfg.Remote.User,
		KeyPath:        cfg.Remote.KeyPath,
		Password:       cfg.Remote.Password,
		KnownHostsPath: cfg.Remote.KnownHosts,
	}, logger)
}

// FromConfig builds the DHCP, forward DNS and reverse DNS adapters
func FromConfig(cfg *config.Config, runner Runner, logger *slog.Logger) []Adapter {
	opts := []Option{
		WithWorkers(cfg.Workers),
		WithNetshPath(cfg.Tools.Netsh),
		WithPowerShellPath(cfg.Tools.PowerShell),
		WithLogger(logger),
	}

	return []Adapter{
		NewDHCPAdapter(runner, cfg.DHCPServer, cfg.Scopes, opts...),
		NewDNSForwardAdapter(runner, cfg.DNSServer, cfg.DNSZone, opts...),
		NewDNSReverseAdapter(runner, cfg.DNSServer, cfg.DNSZone, cfg.DNSReverseZones, opts...),
	}
}
