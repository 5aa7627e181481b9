// Package config loads clientparser configuration.
//
// Values are layered, later sources winning:
//  1. built-in defaults
//  2. YAML config file (see FindConfigPath)
//  3. .env file in the working directory or beside the config file
//     (or --env-file, see FindEnvFile)
//  4. process environment
//
// Config file locations (priority order):
//  1. $CLIENTPARSER_CONFIG
//  2. ./clientparser.yaml
//  3. ~/.config/clientparser/config.yaml
//  4. /etc/clientparser/config.yaml
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkers      = 10
	DefaultPollInterval = time.Second
	DefaultSSHPort      = 22
)

// reverseZoneSuffix terminates every IPv4 reverse lookup zone
const reverseZoneSuffix = ".in-addr.arpa"

// LoadOptions selects the files Load reads
type LoadOptions struct {
	// ConfigPath overrides FindConfigPath. The file must exist.
	ConfigPath string
	// EnvFile overrides FindEnvFile. A missing file is ignored.
	EnvFile string
}

// Sources records which files contributed to a loaded Config
type Sources struct {
	ConfigPath string
	EnvFile    string
}

// Files returns the existing source files, for watching
func (s Sources) Files() []string {
	var files []string
	if s.ConfigPath != "" {
		files = append(files, s.ConfigPath)
	}
	if s.EnvFile != "" && fileExists(s.EnvFile) {
		files = append(files, s.EnvFile)
	}
	return files
}

// Load builds the effective configuration. It does not validate it.
func Load(opts LoadOptions) (*Config, Sources, error) {
	cfg := DefaultConfig()
	var src Sources

	path := opts.ConfigPath
	if path == "" {
		path = FindConfigPath()
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, src, err
		}
		src.ConfigPath = path
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = FindEnvFile(path)
	}
	var fileValues map[string]string
	if envFile != "" {
		values, err := readEnvFile(envFile)
		if err != nil {
			return nil, src, err
		}
		fileValues = values
		src.EnvFile = envFile
	}

	if err := cfg.applyEnv(layeredLookup(fileValues)); err != nil {
		return nil, src, fmt.Errorf("environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, src, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Workers:      DefaultWorkers,
		PollInterval: Duration(DefaultPollInterval),
		Tools: ToolsConfig{
			Netsh:      "netsh",
			PowerShell: "powershell",
		},
	}
}

// applyDefaults fills in values a config file may have blanked
func (c *Config) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.Tools.Netsh == "" {
		c.Tools.Netsh = "netsh"
	}
	if c.Tools.PowerShell == "" {
		c.Tools.PowerShell = "powershell"
	}
	if c.Remote.Enabled() && c.Remote.Port == 0 {
		c.Remote.Port = DefaultSSHPort
	}
}

// Validate reports every missing or malformed setting at once
func (c *Config) Validate() error {
	var errs []error

	required := []struct {
		key   string
		value string
	}{
		{EnvDHCPServer, c.DHCPServer},
		{EnvDNSServer, c.DNSServer},
		{EnvDNSZone, c.DNSZone},
		{EnvDatabaseURI, c.DatabaseURI},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}

	if len(c.Scopes) == 0 {
		errs = append(errs, fmt.Errorf("%s is required", EnvScopes))
	}
	for _, scope := range c.Scopes {
		fields := strings.Fields(scope)
		if len(fields) == 0 {
			errs = append(errs, fmt.Errorf("%s: empty scope", EnvScopes))
			continue
		}
		if addr, err := netip.ParseAddr(fields[0]); err != nil || !addr.Is4() {
			errs = append(errs, fmt.Errorf("%s: %q is not an IPv4 scope", EnvScopes, scope))
		}
	}

	for _, zone := range c.DNSReverseZones {
		z := strings.ToLower(strings.TrimSuffix(zone, "."))
		if !strings.HasSuffix(z, reverseZoneSuffix) || len(z) == len(reverseZoneSuffix) {
			errs = append(errs, fmt.Errorf("%s: %q is not a reverse zone", EnvDNSReverseZones, zone))
		}
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvWorkers, c.Workers))
	}
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative"))
	}

	if c.Remote.Enabled() {
		if c.Remote.User == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvSSHUser, EnvSSHHost))
		}
		if c.Remote.KeyPath == "" && c.Remote.Password == "" {
			errs = append(errs, fmt.Errorf("%s or %s is required when %s is set", EnvSSHKeyPath, EnvSSHPassword, EnvSSHHost))
		}
	}

	return errors.Join(errs...)
}
