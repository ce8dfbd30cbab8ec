package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/srg/timeflip/timeflip"
)

// calibrationCmd represents the calibration command
var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Inspect and manage the calibration version",
	Long: `The calibration version lets an application detect that the device lost
its calibration: the device resets the version to zero on every battery
replacement.

Examples:
  # Read the calibration version
  tflip calibration version -a AA:BB:CC:DD:EE:FF

  # Record a new calibration version on the device
  tflip calibration set 42 -a AA:BB:CC:DD:EE:FF

  # Force a calibration reset
  tflip calibration reset -a AA:BB:CC:DD:EE:FF`,
}

var calibrationVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the calibration version stored on the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		version, err := runSession(cmd, cfg, "Reading calibration version", false,
			func(client *timeflip.Client) (uint32, error) {
				return client.CalibrationVersion(cmd.Context())
			})
		if err != nil {
			return err
		}
		fmt.Println(version)
		return nil
	},
}

var calibrationSetCmd = &cobra.Command{
	Use:   "set <version>",
	Short: "Store a new calibration version on the device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid calibration version %q", args[0])
		}
		return runToggle(cmd, "Writing calibration version",
			fmt.Sprintf("calibration version set to %d", version),
			func(client *timeflip.Client) error {
				return client.SetCalibrationVersion(cmd.Context(), uint32(version))
			})
	},
}

var calibrationResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the calibration version to zero",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle(cmd, "Resetting calibration", "calibration reset",
			func(client *timeflip.Client) error {
				return client.ResetCalibration(cmd.Context())
			})
	},
}

func init() {
	calibrationCmd.AddCommand(calibrationVersionCmd)
	calibrationCmd.AddCommand(calibrationSetCmd)
	calibrationCmd.AddCommand(calibrationResetCmd)
}
