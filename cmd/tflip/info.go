package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/srg/timeflip/timeflip"
)

// deviceInfo is the summary shown by the bare info command.
type deviceInfo struct {
	Name     string `json:"name"`
	Firmware string `json:"firmware"`
	Battery  int    `json:"battery"`
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device name, firmware revision and battery level",
	Long: `Reads the identity characteristics of the device. These reads need no
login, so info works even with an unknown password.

Examples:
  # Summary of name, firmware and battery
  tflip info -a AA:BB:CC:DD:EE:FF

  # Individual values
  tflip info battery -a AA:BB:CC:DD:EE:FF
  tflip info firmware -a AA:BB:CC:DD:EE:FF
  tflip info name -a AA:BB:CC:DD:EE:FF

  # Raw accelerometer readout (requires login)
  tflip info accel -a AA:BB:CC:DD:EE:FF`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

var infoBatteryCmd = &cobra.Command{
	Use:   "battery",
	Short: "Show the battery charge percentage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInfoRead(cmd, "Reading battery", func(client *timeflip.Client) (string, error) {
			level, err := client.BatteryLevel(cmd.Context())
			return fmt.Sprintf("%d%%", level), err
		})
	},
}

var infoFirmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Show the firmware revision",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInfoRead(cmd, "Reading firmware revision", func(client *timeflip.Client) (string, error) {
			return client.FirmwareRevision(cmd.Context())
		})
	},
}

var infoNameCmd = &cobra.Command{
	Use:   "name",
	Short: "Show the advertised device name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInfoRead(cmd, "Reading device name", func(client *timeflip.Client) (string, error) {
			return client.DeviceName(cmd.Context())
		})
	},
}

var infoAccelCmd = &cobra.Command{
	Use:   "accel",
	Short: "Show the raw accelerometer readout as hex",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := runSession(cmd, cfg, "Reading accelerometer", false,
			func(client *timeflip.Client) ([]byte, error) {
				return client.AccelerometerData(cmd.Context())
			})
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(data))
		return nil
	},
}

func init() {
	infoCmd.AddCommand(infoBatteryCmd)
	infoCmd.AddCommand(infoFirmwareCmd)
	infoCmd.AddCommand(infoNameCmd)
	infoCmd.AddCommand(infoAccelCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	info, err := runSession(cmd, cfg, "Reading device info", true,
		func(client *timeflip.Client) (deviceInfo, error) {
			var info deviceInfo
			var err error
			if info.Name, err = client.DeviceName(cmd.Context()); err != nil {
				return info, err
			}
			if info.Firmware, err = client.FirmwareRevision(cmd.Context()); err != nil {
				return info, err
			}
			info.Battery, err = client.BatteryLevel(cmd.Context())
			return info, err
		})
	if err != nil {
		return err
	}

	if jsonOutput(cmd, cfg) {
		return json.NewEncoder(os.Stdout).Encode(info)
	}

	fmt.Printf("Name:     %s\n", info.Name)
	fmt.Printf("Firmware: %s\n", info.Firmware)
	fmt.Printf("Battery:  %d%%\n", info.Battery)
	return nil
}

// runInfoRead handles the single-value connection-only reads.
func runInfoRead(cmd *cobra.Command, progressDesc string, read func(*timeflip.Client) (string, error)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	value, err := runSession(cmd, cfg, progressDesc, true, read)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}
