package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/adlint/adlint/pkg/storage"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past validation runs from the history database",
	Run: func(cmd *cobra.Command, args []string) {
		search, _ := cmd.Flags().GetString("search")
		severity, _ := cmd.Flags().GetString("severity")
		limit, _ := cmd.Flags().GetInt("limit")
		showFindings, _ := cmd.Flags().GetBool("findings")

		db, err := openHistoryDB()
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), storage.ListOptions{
			BundleFilter: search,
			Severity:     severity,
			Limit:        limit,
		})
		if err != nil {
			log.Fatal(err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Bundle", "Status", "Size", "Initial", "When"})
		table.SetBorder(false)
		for _, r := range runs {
			size := r.AdSize
			if size == "" {
				size = "-"
			}
			table.Append([]string{
				fmt.Sprintf("%d", r.ID),
				r.BundleName,
				r.Summary,
				size,
				humanize.IBytes(uint64(r.InitialBytes)),
				r.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		table.Render()

		if showFindings {
			for _, r := range runs {
				findings, err := db.RunFindings(context.Background(), r.ID)
				if err != nil {
					log.Fatal(err)
				}
				fmt.Printf("\n%s (run %d):\n", r.BundleName, r.ID)
				for _, f := range findings {
					fmt.Printf("  [%s] %s\n", f.Severity, f.Title)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("search", "s", "", "Filter by bundle name substring")
	historyCmd.Flags().String("severity", "", "Filter by overall status: PASS, WARN, FAIL")
	historyCmd.Flags().Int("limit", 50, "Maximum runs to list")
	historyCmd.Flags().Bool("findings", false, "Also print stored findings per run")
}
