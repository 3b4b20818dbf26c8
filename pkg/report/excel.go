package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook exports results to an xlsx workbook: a Summary sheet with one
// row per bundle and a Findings sheet with one row per finding.
func WriteWorkbook(path string, results []BundleResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}

	header := []interface{}{"Bundle", "Status", "Ad Size", "Primary", "Total Bytes",
		"Initial Bytes", "Subsequent Bytes", "Zipped Bytes", "Initial Requests", "Generated At"}
	if err := f.SetSheetRow(summary, "A1", &header); err != nil {
		return err
	}
	for i, r := range results {
		size := ""
		if r.AdSize != nil {
			size = r.AdSize.String()
		}
		row := []interface{}{r.BundleName, string(r.Summary), size, r.Primary,
			r.TotalBytes, r.InitialBytes, r.SubsequentBytes, r.ZippedBytes,
			r.InitialRequests, r.GeneratedAt.Format("2006-01-02 15:04:05")}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return err
		}
	}

	const findings = "Findings"
	if _, err := f.NewSheet(findings); err != nil {
		return err
	}
	fHeader := []interface{}{"Bundle", "Check", "Severity", "Messages", "Offenders"}
	if err := f.SetSheetRow(findings, "A1", &fHeader); err != nil {
		return err
	}
	rowIdx := 2
	for _, r := range results {
		for _, finding := range r.Findings {
			var offenders []string
			for _, o := range finding.Offenders {
				if o.Detail != "" {
					offenders = append(offenders, o.Path+": "+o.Detail)
				} else {
					offenders = append(offenders, o.Path)
				}
			}
			row := []interface{}{r.BundleName, finding.Title, string(finding.Severity),
				strings.Join(finding.Messages, "; "), strings.Join(offenders, "; ")}
			cell := fmt.Sprintf("A%d", rowIdx)
			if err := f.SetSheetRow(findings, cell, &row); err != nil {
				return err
			}
			rowIdx++
		}
	}

	return f.SaveAs(path)
}
