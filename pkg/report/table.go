package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/adlint/adlint/pkg/checks"
)

// RenderTable writes the per-bundle summary table.
func RenderTable(w io.Writer, results []BundleResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Bundle", "Status", "Size", "Primary", "Initial", "Requests", "Fail", "Warn"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, r := range results {
		fails, warns := 0, 0
		for _, f := range r.Findings {
			switch f.Severity {
			case checks.Fail:
				fails++
			case checks.Warn:
				warns++
			}
		}
		size := "-"
		if r.AdSize != nil {
			size = r.AdSize.String()
		}
		primary := r.Primary
		if primary == "" {
			primary = "-"
		}
		table.Append([]string{
			r.BundleName,
			string(r.Summary),
			size,
			primary,
			humanize.IBytes(uint64(r.InitialBytes)),
			fmt.Sprintf("%d", r.InitialRequests),
			fmt.Sprintf("%d", fails),
			fmt.Sprintf("%d", warns),
		})
	}
	table.Render()
}

// RenderFindings writes the detailed finding list for one bundle.
func RenderFindings(w io.Writer, r BundleResult) {
	fmt.Fprintf(w, "\n%s: %s\n", r.BundleName, r.Summary)
	for _, f := range r.Findings {
		fmt.Fprintf(w, "  [%s] %s (%s)\n", f.Severity, f.Title, f.ID)
		for _, m := range f.Messages {
			fmt.Fprintf(w, "      %s\n", m)
		}
		for _, o := range f.Offenders {
			if o.Detail != "" {
				fmt.Fprintf(w, "      - %s: %s\n", o.Path, o.Detail)
			} else {
				fmt.Fprintf(w, "      - %s\n", o.Path)
			}
		}
	}
}
