// Package config loads and saves the daemon's YAML configuration file.
//
// The file describes the controller to connect to, the session tuning
// knobs, the HTTP listen address, and the optional MQTT publisher. Every
// field has a default, so a missing file is not an error.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/luxws/config.yaml or $HOME/.config/luxws/config.yaml
//   - macOS: $HOME/.config/luxws/config.yaml
//   - Windows: %LOCALAPPDATA%\luxws\config.yaml
//
// # Security
//
// The MQTT password is never written to disk. It is read from the
// LUXWS_MQTT_PASSWORD environment variable at load time.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg.Device.Address = "192.168.1.40"
//	if err := cfg.Save(""); err != nil {
//	    log.Fatal(err)
//	}
package config
