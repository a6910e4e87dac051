package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/luxws/internal/config"
	"github.com/muurk/luxws/internal/discovery"
	"github.com/muurk/luxws/internal/locale"
	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/protocol"
	"github.com/muurk/luxws/internal/session"
	"github.com/muurk/luxws/internal/snapshot"
	"github.com/muurk/luxws/internal/units"
)

// Device flags shared by every command that talks to the controller.
var (
	deviceAddress string
	devicePort    int
	language      string
	localeFile    string
	pollInterval  time.Duration
)

func addDeviceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&deviceAddress, "address", "", "Controller host or IP (skips discovery)")
	cmd.Flags().IntVar(&devicePort, "port", config.DefaultPort, "Controller websocket port")
	cmd.Flags().StringVar(&language, "language", config.DefaultLanguage, "Language of the controller menu ("+strings.Join(locale.Languages(), ", ")+")")
	cmd.Flags().StringVar(&localeFile, "locale-file", "", "Custom label table (YAML), overrides --language")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", config.DefaultPollInterval, "Refresh cadence")
}

// loadConfig reads the config file and applies flags the user set
// explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Device.Address = deviceAddress
	}
	if flags.Changed("port") {
		cfg.Device.Port = devicePort
	}
	if flags.Changed("language") {
		cfg.Device.Language = language
	}
	if flags.Changed("locale-file") {
		cfg.Device.Locale = localeFile
	}
	if flags.Changed("poll-interval") {
		cfg.Device.PollInterval = pollInterval
	}
	if flags.Changed("listen") {
		cfg.HTTP.Listen = httpListen
	}
	if flags.Changed("mqtt-broker") {
		cfg.MQTT.Broker = mqttBroker
	}
	if flags.Changed("mqtt-prefix") {
		cfg.MQTT.TopicPrefix = mqttPrefix
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// resolveAddress returns the configured address, or the first controller
// found by mDNS.
func resolveAddress(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Device.Address != "" {
		return cfg.Device.Address, nil
	}

	logging.Info("No controller address configured, attempting discovery",
		zap.Duration("timeout", cfg.Discovery.Timeout))

	scanner := discovery.NewScanner()
	scanner.Timeout = cfg.Discovery.Timeout
	c, err := scanner.First(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w. Use --address to specify the controller", err)
	}

	logging.Info("Controller discovered", zap.String("controller", c.String()))
	return c.IP, nil
}

// buildSession assembles the label table, registry, store and session for
// cfg. The session is not started.
func buildSession(ctx context.Context, cfg *config.Config) (*session.Session, *snapshot.Store, error) {
	var (
		table locale.Table
		err   error
	)
	if cfg.Device.Locale != "" {
		table, err = locale.LoadFile(cfg.Device.Locale)
	} else {
		table, err = locale.Load(cfg.Device.Language)
	}
	if err != nil {
		return nil, nil, err
	}

	registry, err := units.NewRegistry(table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build field registry: %w", err)
	}

	address, err := resolveAddress(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store := snapshot.NewStore()
	sess, err := session.New(session.Options{
		URL:            protocol.URL(address, cfg.Device.Port),
		Resolver:       registry,
		Decoder:        units.Converter{Locale: table},
		Store:          store,
		PollInterval:   cfg.Device.PollInterval,
		DialTimeout:    cfg.Device.DialTimeout,
		ErrorThreshold: cfg.Device.ErrorThreshold,
		ErrorCooldown:  cfg.Device.ErrorCooldown,
	})
	if err != nil {
		return nil, nil, err
	}

	logging.Debug("Session configured",
		zap.String("url", protocol.URL(address, cfg.Device.Port)),
		zap.String("language", cfg.Device.Language),
		zap.Int("fields", registry.Len()),
	)
	return sess, store, nil
}
