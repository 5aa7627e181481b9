package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Environment keys, also accepted in the .env file
const (
	EnvScopes          = "SCOPES"
	EnvDHCPServer      = "DHCP_SERVER"
	EnvDNSServer       = "DNS_SERVER"
	EnvDNSZone         = "DNS_ZONE"
	EnvDNSReverseZones = "DNS_REVERSE_ZONES"
	EnvDatabaseURI     = "DATABASE_URI"
	EnvWorkers         = "WORKERS"
	EnvPollInterval    = "POLL_INTERVAL"
	EnvNetshPath       = "NETSH_PATH"
	EnvPowerShellPath  = "POWERSHELL_PATH"
	EnvSSHHost         = "SSH_HOST"
	EnvSSHPort         = "SSH_PORT"
	EnvSSHUser         = "SSH_USER"
	EnvSSHKeyPath      = "SSH_KEY_PATH"
	EnvSSHPassword     = "SSH_PASSWORD"
	EnvSSHKnownHosts   = "SSH_KNOWN_HOSTS"
)

// lookupFunc resolves one configuration key
type lookupFunc func(key string) (string, bool)

// readEnvFile loads KEY=value pairs from a dotenv-style file. A missing
// file yields an empty map.
func readEnvFile(path string) (map[string]string, error) {
	if path == "" || !fileExists(path) {
		return map[string]string{}, nil
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:        "=",
		IgnoreInlineComment:       true,
		SkipUnrecognizableLines:   true,
		UnescapeValueDoubleQuotes: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	values := make(map[string]string)
	for _, key := range file.Section(ini.DefaultSection).Keys() {
		name := strings.TrimSpace(strings.TrimPrefix(key.Name(), "export "))
		values[name] = strings.TrimSpace(key.String())
	}
	return values, nil
}

// layeredLookup prefers the process environment over the .env values
func layeredLookup(fileValues map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}
}

// applyEnv overlays every key that lookup resolves onto c
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = ParseList(v)
		}
	}

	list(EnvScopes, &c.Scopes)
	str(EnvDHCPServer, &c.DHCPServer)
	str(EnvDNSServer, &c.DNSServer)
	str(EnvDNSZone, &c.DNSZone)
	list(EnvDNSReverseZones, &c.DNSReverseZones)
	str(EnvDatabaseURI, &c.DatabaseURI)
	str(EnvNetshPath, &c.Tools.Netsh)
	str(EnvPowerShellPath, &c.Tools.PowerShell)
	str(EnvSSHHost, &c.Remote.Host)
	str(EnvSSHUser, &c.Remote.User)
	str(EnvSSHKeyPath, &c.Remote.KeyPath)
	str(EnvSSHPassword, &c.Remote.Password)
	str(EnvSSHKnownHosts, &c.Remote.KnownHosts)

	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvSSHPort); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSSHPort, err)
		}
		c.Remote.Port = n
	}
	if v, ok := lookup(EnvPollInterval); ok && v != "" {
		d, err := parseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollInterval, err)
		}
		c.PollInterval = Duration(d)
	}

	return nil
}

// ParseList splits a comma-separated value. The bracketed form
// "[a, 'b']" is accepted as well.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	var items []string
	for _, part := range strings.Split(s, ",") {
		item := strings.Trim(strings.TrimSpace(part), `"'`)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
