package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/timeflip/timeflip"
	"github.com/srg/timeflip/timeflip/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Fetch the per-facet recording history",
	Long: `Drains the recording history from the device and prints the recorded
durations grouped per facet, oldest first.

Examples:
  # Print the history
  tflip history -a AA:BB:CC:DD:EE:FF

  # Print and then wipe the on-device history
  tflip history -a AA:BB:CC:DD:EE:FF --clear

  # Wipe without printing
  tflip history -a AA:BB:CC:DD:EE:FF --clear --quiet`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var (
	historyClear bool
	historyQuiet bool
)

func init() {
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete the on-device history after fetching")
	historyCmd.Flags().BoolVar(&historyQuiet, "quiet", false, "Suppress history output (only useful with --clear)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	grouped, err := runSession(cmd, cfg, "Fetching history", false,
		func(client *timeflip.Client) (*history.ByFacet, error) {
			var grouped *history.ByFacet
			if !historyQuiet {
				var err error
				if grouped, err = client.GetHistory(cmd.Context()); err != nil {
					return nil, err
				}
			}
			if historyClear {
				if err := client.ClearHistory(cmd.Context()); err != nil {
					return grouped, err
				}
			}
			return grouped, nil
		})
	if err != nil {
		return err
	}
	if historyQuiet {
		return nil
	}

	if jsonOutput(cmd, cfg) {
		out := make(map[string][]uint32)
		for pair := grouped.Oldest(); pair != nil; pair = pair.Next() {
			out[fmt.Sprintf("%d", pair.Key)] = pair.Value
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	if grouped.Len() == 0 {
		fmt.Println(color.New(color.Faint).Sprint("no recordings"))
		return nil
	}

	for pair := grouped.Oldest(); pair != nil; pair = pair.Next() {
		var total time.Duration
		for _, seconds := range pair.Value {
			total += time.Duration(seconds) * time.Second
		}
		fmt.Printf("%s  %s  (%d recordings)\n",
			color.CyanString("facet %2d", pair.Key), total, len(pair.Value))
		for _, seconds := range pair.Value {
			fmt.Printf("    %s\n", time.Duration(seconds)*time.Second)
		}
	}
	return nil
}
