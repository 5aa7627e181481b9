package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "CLIENTPARSER_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "clientparser.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "clientparser"
	// DefaultEnvFile names the dotenv file FindEnvFile looks for
	DefaultEnvFile = ".env"
)

// FindConfigPath searches for config file in priority order:
// 1. $CLIENTPARSER_CONFIG (explicit path)
// 2. ./clientparser.yaml (working directory)
// 3. $XDG_CONFIG_HOME/clientparser/config.yaml
// 4. ~/.config/clientparser/config.yaml
// 5. /etc/clientparser/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	systemPath := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(systemPath) {
		return systemPath
	}

	return ""
}

// FindEnvFile returns the dotenv file layered over the config file:
// ./.env when present, otherwise a .env beside configPath. Returns empty
// string if neither exists.
func FindEnvFile(configPath string) string {
	if fileExists(DefaultEnvFile) {
		return DefaultEnvFile
	}
	if configPath == "" {
		return ""
	}
	beside := filepath.Join(filepath.Dir(configPath), DefaultEnvFile)
	if fileExists(beside) {
		return beside
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
