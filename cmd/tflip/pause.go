package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/timeflip/timeflip"
)

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Suspend time counting",
	Long: `Pauses the tracker. Counting resumes on 'tflip unpause' or when the
device is physically flipped to another face.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle(cmd, "Pausing", "paused", func(client *timeflip.Client) error {
			return client.Pause(cmd.Context())
		})
	},
}

// unpauseCmd represents the unpause command
var unpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Resume time counting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle(cmd, "Resuming", "resumed", func(client *timeflip.Client) error {
			return client.Unpause(cmd.Context())
		})
	},
}

// lockCmd represents the lock command
var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the tracker",
	Long:  `Locks the tracker so flips do not change the active facet.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle(cmd, "Locking", "locked", func(client *timeflip.Client) error {
			return client.SetLocked(cmd.Context(), true)
		})
	},
}

// unlockCmd represents the unlock command
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the tracker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runToggle(cmd, "Unlocking", "unlocked", func(client *timeflip.Client) error {
			return client.SetLocked(cmd.Context(), false)
		})
	},
}

// runToggle runs one fire-and-forget state command and confirms it.
func runToggle(cmd *cobra.Command, progressDesc, confirmation string, toggle func(*timeflip.Client) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	_, err = runSession(cmd, cfg, progressDesc, false,
		func(client *timeflip.Client) (struct{}, error) {
			return struct{}{}, toggle(client)
		})
	if err != nil {
		return err
	}
	fmt.Println(confirmation)
	return nil
}
