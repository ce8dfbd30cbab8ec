package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/timeflip/timeflip"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the device status snapshot",
	Long: `Fetches the lock, pause and auto-pause state in one command exchange.

Examples:
  # Human-readable status
  tflip status -a AA:BB:CC:DD:EE:FF

  # Machine-readable status
  tflip status -a AA:BB:CC:DD:EE:FF --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	status, err := runSession(cmd, cfg, "Fetching status", false,
		func(client *timeflip.Client) (timeflip.Status, error) {
			return client.GetStatus(cmd.Context())
		})
	if err != nil {
		return err
	}

	if jsonOutput(cmd, cfg) {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"locked":             status.Locked,
			"paused":             status.Paused,
			"auto_pause_minutes": status.AutoPauseMinutes,
		})
	}

	fmt.Printf("Locked:     %s\n", onOff(status.Locked))
	fmt.Printf("Paused:     %s\n", onOff(status.Paused))
	if status.AutoPauseMinutes == 0 {
		fmt.Printf("Auto-pause: %s\n", color.New(color.Faint).Sprint("disabled"))
	} else {
		fmt.Printf("Auto-pause: after %d min\n", status.AutoPauseMinutes)
	}
	return nil
}

// onOff renders a boolean as a colored yes/no.
func onOff(on bool) string {
	if on {
		return color.GreenString("yes")
	}
	return color.New(color.Faint).Sprint("no")
}
