package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tflip",
	Short: "TimeFlip v3 time tracker CLI",
	Long: `Command-line driver for the TimeFlip v3 spinning-top time tracker:

- Read the current facet, battery level, firmware revision and device name
- Fetch and clear the per-facet recording history
- Watch facet changes live via BLE notifications
- Pause, resume, lock and configure auto-pause
- Inspect and manage accelerometer calibration

Connects over Bluetooth Low Energy; the device password defaults to the
factory value and can be set per invocation or in the config file.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", formatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	// Add subcommands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(facetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(unpauseCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(autopauseCmd)
	rootCmd.AddCommand(calibrationCmd)

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default $HOME/.tflip.yaml)")
	rootCmd.PersistentFlags().StringP("address", "a", "", "Device BLE address")
	rootCmd.PersistentFlags().StringP("password", "p", "", "Device password (6 characters)")
	rootCmd.PersistentFlags().Bool("ask-password", false, "Prompt for the device password on stdin")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Connect timeout (default 30s, or the config file value)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
