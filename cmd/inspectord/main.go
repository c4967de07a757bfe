package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lait-kelomins/laits-entity-inspector/internal/telemetry"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inspectord",
	Short: "inspectord - live entity inspection service",
	Long: `inspectord observes a host game server's entities over a message
bus, caching their state and serving live/lazy-expanded snapshots, asset
browsing, and patch authoring to a connected inspector client.`,
	Version: Version,
}

// Version information (set via ldflags during build).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"inspectord version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	telemetry.InitLogging(telemetry.LogConfig{
		Level:      telemetry.Level(logLevel),
		JSONOutput: logJSON,
	})
}
