package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/report"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <bundle.zip> [more.zip...]",
	Short: "Validate bundles and export the results to an xlsx workbook",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("output")

		results := analyzeFiles(args, engineSettings())
		if err := report.WriteWorkbook(out, results); err != nil {
			log.Fatal(err)
		}
		utils.Log.Infof("Wrote %d result(s) to %s", len(results), out)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "adlint-report.xlsx", "Workbook output path")
}
