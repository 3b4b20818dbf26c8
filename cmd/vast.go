package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/vast"
)

// vastCmd represents the vast command
var vastCmd = &cobra.Command{
	Use:   "vast <tag-url-or-file.xml>",
	Short: "Inspect a VAST tag and optionally simulate playback tracking",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		simulate, _ := cmd.Flags().GetBool("simulate")
		fire, _ := cmd.Flags().GetBool("fire")

		doc, err := loadVAST(args[0])
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("VAST %s", doc.Version)
		if doc.AdTitle != "" {
			fmt.Printf(" - %s", doc.AdTitle)
		}
		fmt.Printf(" (duration %s, %d media file(s))\n\n", doc.Duration, len(doc.MediaFiles))
		if doc.ClickThrough != "" {
			fmt.Printf("ClickThrough: %s\n\n", doc.ClickThrough)
		}

		if !simulate {
			renderTrackerInventory(doc)
			return
		}

		var firer vast.Firer = &vast.Recorder{}
		if fire {
			utils.Log.Warn("Firing real tracker pixels")
			firer = &vast.PixelFirer{}
		}
		sim := vast.NewSimulator(doc, firer)
		sim.Start()
		sim.ProgressTo(doc.Duration)
		sim.Complete()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Event", "Fired", "Total"})
		table.SetBorder(false)
		for _, g := range sim.Status() {
			table.Append([]string{g.Event, fmt.Sprintf("%d", g.Fired), fmt.Sprintf("%d", g.Total)})
		}
		table.Render()
	},
}

func loadVAST(target string) (*vast.Document, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return vast.Fetch(ctx, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	return vast.Parse(data)
}

func renderTrackerInventory(doc *vast.Document) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Event", "Tracker URL"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	sim := vast.NewSimulator(doc, &vast.Recorder{})
	for _, g := range sim.Status() {
		for _, u := range doc.Trackers[g.Event] {
			table.Append([]string{g.Event, u})
		}
	}
	table.Render()
}

func init() {
	rootCmd.AddCommand(vastCmd)
	vastCmd.Flags().Bool("simulate", false, "Simulate a full playback and report fired/total per tracker group")
	vastCmd.Flags().Bool("fire", false, "Actually request tracker pixels during simulation")
}
