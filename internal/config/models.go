package config

import "time"

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Defaults applied to fields left empty in the file.
const (
	DefaultPort             = 8214
	DefaultLanguage         = "de"
	DefaultPollInterval     = 10 * time.Second
	DefaultDialTimeout      = 30 * time.Second
	DefaultErrorThreshold   = 3
	DefaultErrorCooldown    = 100
	DefaultListen           = ":8080"
	DefaultTopicPrefix      = "luxws"
	DefaultDiscoveryTimeout = 5 * time.Second
)

// Config represents the entire configuration file.
type Config struct {
	Version   int             `yaml:"version"`
	Device    DeviceConfig    `yaml:"device"`
	HTTP      HTTPConfig      `yaml:"http"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// DeviceConfig describes the controller and how the session treats it.
type DeviceConfig struct {
	Address  string `yaml:"address,omitempty"` // Host name or IP; discovered when empty
	Port     int    `yaml:"port"`
	Language string `yaml:"language"`              // Language of the controller's menu
	Locale   string `yaml:"locale_file,omitempty"` // Custom label table, overrides Language

	PollInterval   time.Duration `yaml:"poll_interval"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ErrorThreshold int           `yaml:"error_threshold"`
	ErrorCooldown  int           `yaml:"error_cooldown"` // In drives, not seconds
}

// HTTPConfig configures the read-only HTTP surface.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// MQTTConfig configures the optional MQTT publisher. Publishing is off
// while Broker is empty.
type MQTTConfig struct {
	Broker      string `yaml:"broker,omitempty"`
	TopicPrefix string `yaml:"topic_prefix"`
	ClientID    string `yaml:"client_id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	// Password is only read from the environment (LUXWS_MQTT_PASSWORD) and
	// never written back to the file.
	Password string `yaml:"-"`
}

// DiscoveryConfig configures the mDNS scan.
type DiscoveryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether MQTT publishing is configured.
func (m MQTTConfig) Enabled() bool {
	return m.Broker != ""
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{Version: CurrentVersion}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = CurrentVersion
	}
	d := &c.Device
	if d.Port == 0 {
		d.Port = DefaultPort
	}
	if d.Language == "" {
		d.Language = DefaultLanguage
	}
	if d.PollInterval == 0 {
		d.PollInterval = DefaultPollInterval
	}
	if d.DialTimeout == 0 {
		d.DialTimeout = DefaultDialTimeout
	}
	if d.ErrorThreshold == 0 {
		d.ErrorThreshold = DefaultErrorThreshold
	}
	if d.ErrorCooldown == 0 {
		d.ErrorCooldown = DefaultErrorCooldown
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultListen
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = DefaultDiscoveryTimeout
	}
}
