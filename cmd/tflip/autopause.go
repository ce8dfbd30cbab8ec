package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/srg/timeflip/timeflip"
)

// autopauseCmd represents the autopause command
var autopauseCmd = &cobra.Command{
	Use:   "autopause <minutes>",
	Short: "Set the auto-pause time in minutes",
	Long: `Sets how long a face may stay up before the device pauses counting on
its own. Zero disables auto-pause.

Examples:
  # Pause automatically after two hours on one face
  tflip autopause 120 -a AA:BB:CC:DD:EE:FF

  # Disable auto-pause
  tflip autopause 0 -a AA:BB:CC:DD:EE:FF`,
	Args: cobra.ExactArgs(1),
	RunE: runAutopause,
}

func runAutopause(cmd *cobra.Command, args []string) error {
	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid minutes value %q", args[0])
	}

	return runToggle(cmd, "Setting auto-pause", fmt.Sprintf("auto-pause set to %d min", minutes),
		func(client *timeflip.Client) error {
			return client.SetAutoPause(cmd.Context(), minutes)
		})
}
