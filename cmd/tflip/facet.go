package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/timeflip/timeflip"
)

// facetCmd represents the facet command
var facetCmd = &cobra.Command{
	Use:   "facet",
	Short: "Show the current facet, or watch facet changes live",
	Long: `Reads the id of the face currently up. The reserved id 63 means the
tracker is paused with no face up.

Examples:
  # One-shot read
  tflip facet -a AA:BB:CC:DD:EE:FF

  # Stream facet changes until Ctrl+C
  tflip facet -a AA:BB:CC:DD:EE:FF --watch`,
	Args: cobra.NoArgs,
	RunE: runFacet,
}

var facetWatch bool

func init() {
	facetCmd.Flags().BoolVar(&facetWatch, "watch", false, "Stream facet change notifications until interrupted")
}

func runFacet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !facetWatch {
		facet, err := runSession(cmd, cfg, "Reading facet", false,
			func(client *timeflip.Client) (uint8, error) {
				return client.CurrentFacet(cmd.Context())
			})
		if err != nil {
			return err
		}
		printFacet(timeflip.FacetEvent{Facet: facet})
		return nil
	}

	_, err = runSession(cmd, cfg, "Watching facets", false,
		func(client *timeflip.Client) (struct{}, error) {
			fmt.Fprintln(os.Stderr, "Watching facet changes. Press Ctrl+C to stop...")

			// Print the starting facet so the stream has a baseline.
			facet, err := client.CurrentFacet(cmd.Context())
			if err != nil {
				return struct{}{}, err
			}
			printFacet(timeflip.FacetEvent{Facet: facet})

			if err := client.StartFacetStream(printFacet); err != nil {
				return struct{}{}, err
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(interrupt)

			select {
			case <-interrupt:
			case <-cmd.Context().Done():
			}
			return struct{}{}, client.StopFacetStream()
		})
	return err
}

// printFacet renders one facet value; doubles as the stream handler.
func printFacet(e timeflip.FacetEvent) {
	if e.Paused() {
		fmt.Println(color.YellowString("paused"))
		return
	}
	fmt.Println(e.Facet)
}
