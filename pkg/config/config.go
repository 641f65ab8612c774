package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const ConfigFileName = ".walletbridge.json"

// EnvBridgeURL overrides the configured bridge endpoint when set.
const EnvBridgeURL = "WALLETBRIDGE_URL"

// Config holds application-wide settings.
type Config struct {
	BridgeURL          string `json:"bridge_url"`
	Origin             string `json:"origin,omitempty"`
	DialTimeoutSeconds int    `json:"dial_timeout_seconds"`
	SilentProbe        bool   `json:"silent_probe"`
	ServerPort         int    `json:"server_port"`
	LogFile            string `json:"log_file,omitempty"`
}

func Default() Config {
	return Config{
		DialTimeoutSeconds: 5,
		SilentProbe:        true,
		ServerPort:         8080,
	}
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}

func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		BridgeURL          *string `json:"bridge_url"`
		Origin             *string `json:"origin"`
		DialTimeoutSeconds *int    `json:"dial_timeout_seconds"`
		SilentProbe        *bool   `json:"silent_probe"`
		ServerPort         *int    `json:"server_port"`
		LogFile            *string `json:"log_file"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if raw.BridgeURL != nil {
		cfg.BridgeURL = *raw.BridgeURL
	}
	if raw.Origin != nil {
		cfg.Origin = *raw.Origin
	}
	if raw.DialTimeoutSeconds != nil {
		cfg.DialTimeoutSeconds = *raw.DialTimeoutSeconds
	}
	if raw.SilentProbe != nil {
		cfg.SilentProbe = *raw.SilentProbe
	}
	if raw.ServerPort != nil {
		cfg.ServerPort = *raw.ServerPort
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}
	return cfg, nil
}

// ResolveBridgeURL returns the effective bridge endpoint. The environment
// variable wins over the config file; re-read on every call so presence is
// never cached.
func ResolveBridgeURL(cfg Config) string {
	if v := os.Getenv(EnvBridgeURL); v != "" {
		return v
	}
	return cfg.BridgeURL
}

func SaveConfig(cfg Config, path string) error {
	if cfg.BridgeURL != "" {
		if !strings.HasPrefix(cfg.BridgeURL, "ws://") && !strings.HasPrefix(cfg.BridgeURL, "wss://") {
			return fmt.Errorf("validation failed: bridge_url must be a ws:// or wss:// endpoint")
		}
	}
	if cfg.DialTimeoutSeconds < 0 {
		return fmt.Errorf("validation failed: dial_timeout_seconds must not be negative")
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return fmt.Errorf("validation failed: server_port %d out of range", cfg.ServerPort)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err == nil {
			_ = os.WriteFile(backupPath, input, 0600)
		}
	}

	return os.WriteFile(path, data, 0600)
}
