// Oledclock is an NTP wall clock daemon for small Linux boards with an
// SSD1306 OLED.
//
// It renders the time to the panel, serves a web dashboard with a settings
// page, and falls back to a captive-portal WiFi hotspot when the device has
// no stored credentials. Optionally it publishes the time over MQTT.
//
// Usage:
//
//	oledclock run [flags]
//	oledclock setup
//	oledclock config show|path|init
//
// See 'oledclock --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oledclock/oledclock/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oledclock",
	Short: "OLED NTP clock daemon",
	Long: `A wall clock daemon for Linux boards driving a small SSD1306 OLED.

The daemon keeps the panel showing NTP-synchronized time, serves a web
dashboard with a settings page, and opens a captive-portal setup hotspot
when no WiFi credentials are stored. MQTT telemetry is optional.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the settings file (default: $XDG_CONFIG_HOME/oledclock/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("oledclock %s\n", version.Full())
	},
}
