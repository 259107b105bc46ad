// Ephemeris-cfg configures the Ephemeris watchface.
//
// It runs a configuration session: the settings form is shown (or driven
// from flags), the location is looked up on request, and the resulting
// settings payload is delivered to the phone bridge over WebSocket.
//
// Usage:
//
//	ephemeris-cfg [command] [flags]
//
// Running without arguments opens the interactive settings form.
// See 'ephemeris-cfg --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/ephemeris/internal/logging"
	"github.com/muurk/ephemeris/internal/settings"
	"github.com/muurk/ephemeris/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var sErr *settings.Error
		if errors.As(err, &sErr) {
			fmt.Fprintf(os.Stderr, "\n%s\n", settings.GetTroubleshootingHint(err))
		}
		os.Exit(1)
	}
}

// Global flags
var (
	logLevel   string
	configPath string
	schemaPath string
)

var rootCmd = &cobra.Command{
	Use:   "ephemeris-cfg",
	Short: "Ephemeris watchface configuration utility",
	Long: `Configure the Ephemeris watchface from the command line.

Opens the settings form, optionally looks up your location, and sends the
settings to the phone bridge. Latitude and longitude are sent as whole
hundredths of a degree.

If no command is specified, the interactive form opens.`,
	Version:       version.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: open the form when no subcommand is given
		return runConfigure(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Preferences file (default is the user config directory)")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "Settings schema file (default is the built-in schema)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", version.Name, version.Full())
	},
}
