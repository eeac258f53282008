package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oledclock/oledclock/internal/config"
	"github.com/oledclock/oledclock/internal/daemon"
	"github.com/oledclock/oledclock/internal/logging"
	"github.com/oledclock/oledclock/internal/wizard"
)

var (
	configPath     string
	logLevel       string
	displayBackend string
	listenAddr     string
)

// openStore resolves the settings path (flag or default) and opens it.
func openStore() (*config.Store, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Open(path)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the clock daemon",
	Long: `Run the clock: join the stored WiFi network (or open the setup
hotspot when none is stored), sync against NTP, drive the display, and
serve the web dashboard.`,
	Example: `  # Normal operation
  oledclock run

  # Develop without hardware: render to the terminal, serve on :8080
  oledclock run --display term --listen :8080 --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}

		d := daemon.New(store, daemon.Options{
			DisplayBackend: displayBackend,
			Listen:         listenAddr,
		})
		return d.Run(context.Background())
	},
}

func init() {
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&displayBackend, "display", "", "Display backend override (oled, term)")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address override (e.g. :8080)")
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the interactive setup wizard",
	Long: `Collect WiFi credentials, hostname, timezone, and MQTT settings on
the console and write them to the settings file. An alternative to the
captive-portal flow when the device has a keyboard.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitializeFromEnv(); err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}
		return wizard.Run(store)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialize the settings file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitializeFromEnv(); err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}

		settings := store.Get()
		// Secrets stay out of terminal scrollback.
		if settings.WiFi.Passphrase != "" {
			settings.WiFi.Passphrase = "********"
		}
		if settings.MQTT.Password != "" {
			settings.MQTT.Password = "********"
		}

		data, err := yaml.Marshal(&settings)
		if err != nil {
			return fmt.Errorf("failed to render settings: %w", err)
		}
		fmt.Fprint(os.Stdout, string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with factory defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitializeFromEnv(); err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}
		if err := store.Save(); err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}
		fmt.Printf("Wrote %s\n", store.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}
