package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Scopes          []string `yaml:"scopes"`
	DHCPServer      string   `yaml:"dhcp_server"`
	DNSServer       string   `yaml:"dns_server"`
	DNSZone         string   `yaml:"dns_zone"`
	DNSReverseZones []string `yaml:"dns_reverse_zones,omitempty"`
	DatabaseURI     string   `yaml:"database_uri"`

	// Workers bounds concurrent command invocations per adapter
	Workers int `yaml:"workers"`
	// Interval between cycle starts; zero runs a single cycle
	Interval Duration `yaml:"interval,omitempty"`
	// PollInterval is how often a sleeping scheduler checks the clock
	PollInterval Duration `yaml:"poll_interval,omitempty"`

	Tools  ToolsConfig  `yaml:"tools"`
	Remote RemoteConfig `yaml:"remote,omitempty"`
}

// ToolsConfig names the executables invoked on the collector host
type ToolsConfig struct {
	Netsh      string `yaml:"netsh"`
	PowerShell string `yaml:"powershell"`
}

// RemoteConfig describes an optional Windows jump host reached over SSH.
// When Host is empty commands run locally.
type RemoteConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	User       string `yaml:"user,omitempty"`
	KeyPath    string `yaml:"key_path,omitempty"`
	Password   string `yaml:"password,omitempty"`
	KnownHosts string `yaml:"known_hosts,omitempty"`
}

// Enabled reports whether commands should run over SSH
func (r RemoteConfig) Enabled() bool {
	return r.Host != ""
}

// Duration wraps time.Duration for YAML unmarshaling. Plain integers are
// read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := parseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
