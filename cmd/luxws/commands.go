package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/luxws/internal/config"
	"github.com/muurk/luxws/internal/discovery"
	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/metrics"
	"github.com/muurk/luxws/internal/mqtt"
	"github.com/muurk/luxws/internal/server"
	"github.com/muurk/luxws/internal/session"
	"github.com/muurk/luxws/internal/ui"
	"github.com/muurk/luxws/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Command flags
var (
	httpListen  string
	mqttBroker  string
	mqttPrefix  string
	jsonOutput  bool
	dumpTimeout time.Duration
	scanTimeout time.Duration
	saveAddress bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(discoverCmd)
}

// serveCmd runs the daemon
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon",
	Long: `Keep a session to the controller alive and serve its values.

Routes:
  GET /         all values as JSON, waits for the first snapshot
  GET /metrics  Prometheus metrics
  GET /healthz  session status

When an MQTT broker is configured every snapshot is also published.`,
	Example: `  # Use the config file, discover the controller if no address is set
  luxws serve

  # Explicit controller and listen address
  luxws serve --address 192.168.1.40 --listen :9100

  # Publish to MQTT as well
  luxws serve --address heatpump.lan --mqtt-broker tcp://broker:1883`,
	Annotations: map[string]string{annotationLogLevel: "info"},
	RunE:        runServe,
}

func init() {
	addDeviceFlags(serveCmd)
	serveCmd.Flags().StringVar(&httpListen, "listen", config.DefaultListen, "HTTP listen address")
	serveCmd.Flags().StringVar(&mqttBroker, "mqtt-broker", "", "MQTT broker URL, e.g. tcp://broker:1883 (disabled when empty)")
	serveCmd.Flags().StringVar(&mqttPrefix, "mqtt-prefix", config.DefaultTopicPrefix, "MQTT topic prefix")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, store, err := buildSession(ctx, cfg)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry(metrics.NewCollector(store, sess))
	srv := server.New(&server.Config{Listen: cfg.HTTP.Listen}, store, sess, registry)
	if err := srv.Listen(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	if cfg.MQTT.Enabled() {
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = "luxws-" + uuid.NewString()[:8]
		}
		pub, err := mqtt.Connect(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			ClientID:    clientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		})
		if err != nil {
			return err
		}
		store.Subscribe(pub.Enqueue)
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Run(ctx)
		}()
	}

	logging.Info("Starting luxws",
		zap.String("version", version.Version),
		zap.String("listen", srv.Addr()),
		zap.Bool("mqtt", cfg.MQTT.Enabled()),
	)

	errChan := make(chan error, 2)
	go func() { errChan <- sess.Run(ctx) }()
	go func() { errChan <- srv.Start(ctx) }()

	// Whichever stops first takes the other down with it.
	first := <-errChan
	stop()
	second := <-errChan
	wg.Wait()

	logging.Info("luxws stopped")
	return errors.Join(first, second)
}

// watchCmd shows a live dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show live values in a terminal dashboard",
	Long: `Open a session to the controller and show its values in a full-screen
dashboard that refreshes every second. Logging is disabled while the
dashboard is open.`,
	Example: `  luxws watch --address 192.168.1.40
  luxws watch --language en --poll-interval 5s`,
	RunE: runWatch,
}

func init() {
	addDeviceFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess, store, err := buildSession(ctx, cfg)
	if err != nil {
		return err
	}

	// The dashboard owns the terminal from here on.
	logging.Disable()

	go func() { _ = sess.Run(ctx) }()
	defer shutdownSession(sess)

	p := tea.NewProgram(ui.NewDashboard("luxws", store, sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// dumpCmd prints one snapshot and exits
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the current values once",
	Long: `Open a session, wait for the first complete snapshot, print it and exit.`,
	Example: `  # Table output
  luxws dump --address 192.168.1.40

  # Same document as GET / of the daemon
  luxws dump --address 192.168.1.40 --json`,
	RunE: runDump,
}

func init() {
	addDeviceFlags(dumpCmd)
	dumpCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	dumpCmd.Flags().DurationVar(&dumpTimeout, "timeout", time.Minute, "Give up when no snapshot arrives within this time")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, store, err := buildSession(ctx, cfg)
	if err != nil {
		return err
	}

	go func() { _ = sess.Run(ctx) }()

	waitCtx, cancel := context.WithTimeout(ctx, dumpTimeout)
	defer cancel()
	leaves, updated, err := store.Wait(waitCtx)
	status := sess.Status()
	shutdownSession(sess)
	if err != nil {
		if status.LastError != "" {
			return fmt.Errorf("no data from %s (state %s, last error: %s): %w", status.URL, status.State, status.LastError, err)
		}
		return fmt.Errorf("no data from %s (state %s): %w", status.URL, status.State, err)
	}

	if jsonOutput {
		info := version.Get()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(server.Response{
			Data: leaves,
			Metadata: server.Metadata{
				Version:   info.Version,
				Commit:    info.Commit,
				Timestamp: updated.UTC(),
			},
		})
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.PrintTitle("luxws dump", fmt.Sprintf("%s · %d values · %s", status.URL, len(leaves), updated.Format(time.RFC3339)))
	printer.PrintLeaves(leaves)
	return nil
}

// discoverCmd scans the network for controllers
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Scan for controllers on the network",
	Long: `Scan for heat pump controllers using mDNS/DNS-SD discovery.

Controllers are recognised by the host or instance name of their web
interface. Use --save to store the address of the only controller found
in the config file.`,
	Example: `  # Scan for 5 seconds (default)
  luxws discover

  # Longer scan, then remember the result
  luxws discover --timeout 15s --save`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&scanTimeout, "timeout", config.DefaultDiscoveryTimeout, "Scan timeout")
	discoverCmd.Flags().BoolVar(&saveAddress, "save", false, "Save the discovered address to the config file")
}

var discoveryTips = []string{
	"Ensure this machine is on the same network segment as the controller",
	"Check that the firewall allows mDNS (UDP port 5353)",
	"Try increasing --timeout for slower networks",
	"Use --address to specify the controller manually",
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Discovery.Timeout = scanTimeout
	}

	printer := ui.NewPrinter(os.Stdout)
	printer.Println(ui.SubtitleStyle.Render(fmt.Sprintf("Scanning for controllers (timeout: %s)...", cfg.Discovery.Timeout)))
	printer.Newline()

	scanner := discovery.NewScanner()
	scanner.Timeout = cfg.Discovery.Timeout
	controllers, err := scanner.Scan(cmd.Context())
	if err != nil {
		printer.PrintResult(ui.NewFailureResult("Discovery failed", err, discoveryTips))
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(controllers) == 0 {
		r := ui.NewWarningResult("No controllers found", ui.Detail{Key: "Timeout", Value: cfg.Discovery.Timeout.String()})
		r.Troubleshooting = discoveryTips
		printer.PrintResult(r)
		return nil
	}

	r := ui.NewSuccessResult(fmt.Sprintf("Found %d controller(s)", len(controllers)))
	for _, c := range controllers {
		r.AddDetail(c.Instance, fmt.Sprintf("%s (%s)", c.Address(), c.Hostname))
	}

	if saveAddress {
		if len(controllers) > 1 {
			printer.PrintResult(r)
			return fmt.Errorf("multiple controllers found, use 'luxws serve --address <ip>' to pick one")
		}
		cfg.Device.Address = controllers[0].IP
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		path := configPath
		if path == "" {
			path, _ = config.GetConfigPath()
		}
		r.AddDetail("Saved to", path)
	}

	printer.PrintResult(r)
	return nil
}

func shutdownSession(sess *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sess.Shutdown(ctx); err != nil {
		logging.Warn("Session shutdown incomplete", zap.Error(err))
	}
}
