// Luxws reads live values from a heat pump controller's websocket
// interface and republishes them.
//
// It keeps one session to the controller alive, keeps the latest
// snapshot of every value, and serves it as JSON and Prometheus metrics
// over HTTP, optionally also publishing to an MQTT broker.
//
// Usage:
//
//	luxws [command] [flags]
//
// See 'luxws --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/luxws/internal/logging"
	"github.com/muurk/luxws/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// annotationLogLevel names the command annotation holding its default
// log level.
const annotationLogLevel = "default-log-level"

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "luxws",
	Short: "Heat pump controller websocket bridge",
	Long: `Connects to the websocket interface of a heat pump controller (port 8214),
keeps a live snapshot of every value from its information menu, and exposes it
over HTTP as JSON and Prometheus metrics, and optionally over MQTT.

Without a configured address the controller is located by mDNS.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
			// Long-running commands log by default; one-shots stay quiet.
			level = cmd.Annotations[annotationLogLevel]
		}
		return logging.Initialize(level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: OS config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset unless "+logging.LogLevelEnvVar+" is set")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("luxws %s (commit: %s)\n", version.Version, version.Commit)
	},
}
