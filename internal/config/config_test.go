package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if dir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(dir, appName) {
		t.Errorf("GetConfigDir() = %q, should contain %q", dir, appName)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if os.Getenv("LOCALAPPDATA") != "" {
		t.Skip("XDG lookup does not apply on windows")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if filepath.Base(dir) != appName {
		t.Errorf("GetConfigDir() = %q, want base %q", dir, appName)
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvMQTTPassword, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
	if cfg.Device.Port != 8214 || cfg.Device.PollInterval != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg.Device)
	}
	if cfg.MQTT.Enabled() {
		t.Error("MQTT should be disabled by default")
	}
}

func TestLoad_PartialFile(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvMQTTPassword, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
device:
  address: heatpump.lan
  poll_interval: 30s
  error_threshold: 5
mqtt:
  broker: tcp://broker:1883
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"address", cfg.Device.Address, "heatpump.lan"},
		{"poll interval", cfg.Device.PollInterval, 30 * time.Second},
		{"threshold", cfg.Device.ErrorThreshold, 5},
		{"cooldown default", cfg.Device.ErrorCooldown, DefaultErrorCooldown},
		{"port default", cfg.Device.Port, DefaultPort},
		{"language default", cfg.Device.Language, DefaultLanguage},
		{"listen default", cfg.HTTP.Listen, DefaultListen},
		{"broker", cfg.MQTT.Broker, "tcp://broker:1883"},
		{"prefix default", cfg.MQTT.TopicPrefix, DefaultTopicPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAddress, "10.0.0.9")
	t.Setenv(EnvMQTTPassword, "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.Address != "10.0.0.9" {
		t.Errorf("Address = %q, want env override", cfg.Device.Address)
	}
	if cfg.MQTT.Password != "secret" {
		t.Errorf("Password = %q, want env override", cfg.MQTT.Password)
	}
}

func TestLoad_PasswordOnlyFromEnv(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvMQTTPassword, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `version: 1
mqtt:
  broker: tcp://broker:1883
  username: luxws
  password: from-file
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Username != "luxws" {
		t.Errorf("Username = %q", cfg.MQTT.Username)
	}
	if cfg.MQTT.Password != "" {
		t.Errorf("Password = %q, want it ignored in the file", cfg.MQTT.Password)
	}

	t.Setenv(EnvMQTTPassword, "from-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Password != "from-env" {
		t.Errorf("Password = %q, want from-env", cfg.MQTT.Password)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad version", "version: 7\n", "unsupported config version"},
		{"bad yaml", "device: [\n", "failed to parse"},
		{"bad duration", "device:\n  poll_interval: soon\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port", func(c *Config) { c.Device.Port = 70000 }, "device.port"},
		{"threshold", func(c *Config) { c.Device.ErrorThreshold = -1 }, "error_threshold"},
		{"cooldown", func(c *Config) { c.Device.ErrorCooldown = -1 }, "error_cooldown"},
		{"broker", func(c *Config) { c.MQTT.Broker = "broker" }, "mqtt.broker"},
		{"valid broker", func(c *Config) { c.MQTT.Broker = "tcp://broker:1883" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv(EnvAddress, "")
	t.Setenv(EnvMQTTPassword, "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Device.Address = "192.168.1.40"
	cfg.Device.DialTimeout = 45 * time.Second
	cfg.MQTT.Broker = "tcp://broker:1883"
	cfg.MQTT.Password = "never-on-disk"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# luxws configuration file") {
		t.Error("saved file is missing its header")
	}
	if strings.Contains(string(data), "never-on-disk") {
		t.Error("password was written to disk")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Device.Address != "192.168.1.40" || loaded.Device.DialTimeout != 45*time.Second {
		t.Errorf("reloaded device = %+v", loaded.Device)
	}
	if loaded.MQTT.Password != "" {
		t.Errorf("reloaded password = %q, want empty", loaded.MQTT.Password)
	}
}
