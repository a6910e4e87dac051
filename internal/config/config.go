package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "luxws"
	configFile = "config.yaml"
)

// Environment overrides.
const (
	EnvAddress      = "LUXWS_ADDRESS"
	EnvMQTTPassword = "LUXWS_MQTT_PASSWORD"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/luxws or $HOME/.config/luxws
//   - macOS: $HOME/.config/luxws (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\luxws
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: Use LOCALAPPDATA
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems: Use XDG_CONFIG_HOME or $HOME/.config
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	p, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return p, nil
}

// Load reads the configuration from path, or from the default location
// when path is empty. A missing file yields the defaults. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	fileMutex.Lock()
	data, err := os.ReadFile(configPath)
	fileMutex.Unlock()

	cfg := &Config{}
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = Default()
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if cfg.Version != 0 && cfg.Version != CurrentVersion {
			return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
		}
		cfg.applyDefaults()
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddress); v != "" {
		c.Device.Address = v
	}
	if v := os.Getenv(EnvMQTTPassword); v != "" {
		c.MQTT.Password = v
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	d := c.Device
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("device.port %d out of range", d.Port))
	}
	if d.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("device.poll_interval must be positive"))
	}
	if d.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("device.dial_timeout must be positive"))
	}
	if d.ErrorThreshold < 1 {
		errs = append(errs, fmt.Errorf("device.error_threshold must be at least 1"))
	}
	if d.ErrorCooldown < 0 {
		errs = append(errs, fmt.Errorf("device.error_cooldown must not be negative"))
	}
	if c.MQTT.Enabled() {
		u, err := url.Parse(c.MQTT.Broker)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("mqtt.broker %q is not a URL like tcp://host:1883", c.MQTT.Broker))
		}
	}
	if c.Discovery.Timeout < 0 {
		errs = append(errs, fmt.Errorf("discovery.timeout must be positive"))
	}
	return errors.Join(errs...)
}

// Save writes the configuration to path, or to the default location when
// path is empty. Performs an atomic write to prevent corruption on crash.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	configPath, err := resolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Add header comment
	header := []byte(`# luxws configuration file
#
# The MQTT password is never stored here; set ` + EnvMQTTPassword + ` instead.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		// Clean up temp file on error
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}
