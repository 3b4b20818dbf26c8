package cmd

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/checks"
	"github.com/adlint/adlint/pkg/report"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <bundle.zip> [more.zip...]",
	Short: "Validate creative bundles against packaging rules",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		details, _ := cmd.Flags().GetBool("details")
		save, _ := cmd.Flags().GetBool("save")

		results := analyzeFiles(args, engineSettings())
		report.RenderTable(os.Stdout, results)
		if details {
			for _, r := range results {
				report.RenderFindings(os.Stdout, r)
			}
		}

		if save {
			saveResults(results)
		}

		for _, r := range results {
			if r.Summary == checks.Fail {
				os.Exit(1)
			}
		}
	},
}

// analyzeFiles runs one analysis pipeline per archive concurrently. Each
// bundle is independent and immutable, so the only coordination needed is
// collecting results by position.
func analyzeFiles(paths []string, settings checks.Settings) []report.BundleResult {
	results := make([]report.BundleResult, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			raw, err := os.ReadFile(p)
			if err != nil {
				utils.Log.Errorf("reading %s: %v", p, err)
				results[i] = failedResult(p, err)
				return
			}
			b, err := bundle.FromZip(p, raw)
			if err != nil {
				utils.Log.Errorf("%v", err)
				results[i] = failedResult(p, err)
				return
			}
			results[i] = report.Analyze(b, settings)
		}(i, p)
	}
	wg.Wait()
	return results
}

// failedResult synthesizes a FAIL-only result for an archive that could not
// be read at all, so a broken file never blanks the rest of the batch.
func failedResult(name string, err error) report.BundleResult {
	f := checks.Finding{
		ID:       "packaging",
		Title:    "Packaging hygiene",
		Severity: checks.Fail,
		Messages: []string{err.Error()},
	}
	return report.BundleResult{
		BundleName: name,
		Findings:   []checks.Finding{f},
		Summary:    checks.Fail,
	}
}

func saveResults(results []report.BundleResult) {
	lock, err := utils.NewDBLock(viperDBPath())
	if err != nil {
		log.Fatal(err)
	}
	if err := lock.Lock(); err != nil {
		log.Fatal(err)
	}
	defer lock.Unlock()

	db, err := openHistoryDB()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	for _, r := range results {
		if r.BundleID == "" {
			continue
		}
		if _, err := db.SaveResult(context.Background(), r); err != nil {
			utils.Log.Errorf("persisting run for %s: %v", r.BundleName, err)
		}
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolP("details", "d", false, "Print every finding, not just the summary table")
	validateCmd.Flags().Bool("save", false, "Persist results to the history database")
}
