// Package report runs the analysis pipeline and aggregates one bundle's
// outcome into the serializable BundleResult consumed by the CLI, the server
// and the exporters.
package report

import (
	"time"

	"github.com/adlint/adlint/pkg/budget"
	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/checks"
	"github.com/adlint/adlint/pkg/discovery"
	"github.com/adlint/adlint/pkg/refs"
)

// BundleResult is the aggregate of one bundle's validation run. A re-run
// produces a fresh value; results are never mutated in place.
type BundleResult struct {
	BundleID   string `json:"bundleId"`
	BundleName string `json:"bundleName"`

	Primary      string          `json:"primary,omitempty"`
	AdSize       *refs.AdSize    `json:"adSize,omitempty"`
	AdSizeSource refs.SizeSource `json:"adSizeSource,omitempty"`

	References []refs.Reference `json:"references"`

	TotalBytes      int64 `json:"totalBytes"`
	InitialBytes    int64 `json:"initialBytes"`
	SubsequentBytes int64 `json:"subsequentBytes"`
	ZippedBytes     int64 `json:"zippedBytes"`
	InitialRequests int   `json:"initialRequests"`
	TotalRequests   int   `json:"totalRequests"`

	Findings []checks.Finding `json:"findings"`
	Summary  checks.Severity  `json:"summary"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// Analyze runs the full pipeline over one bundle: discovery, reference
// resolution, byte-budget accounting, then every check. Pure over the bundle
// and settings, so bundles can be analyzed concurrently.
func Analyze(b *bundle.Bundle, settings checks.Settings) BundleResult {
	disc := discovery.Discover(b)

	var res refs.Resolution
	if disc.Primary != "" {
		res = refs.Resolve(b, disc.Primary)
	}

	acc := budget.Account(b, disc.Primary, res.References)

	in := checks.Input{Discovery: disc, Resolution: res, Budget: acc}
	findings := checks.Run(b, in, settings)

	return BundleResult{
		BundleID:        b.ID,
		BundleName:      b.Name,
		Primary:         disc.Primary,
		AdSize:          res.AdSize,
		AdSizeSource:    res.AdSizeSource,
		References:      res.References,
		TotalBytes:      acc.TotalBytes,
		InitialBytes:    acc.InitialBytes,
		SubsequentBytes: acc.SubsequentBytes,
		ZippedBytes:     acc.ZippedBytes,
		InitialRequests: acc.InitialRequests,
		TotalRequests:   acc.TotalRequests,
		Findings:        findings,
		Summary:         checks.Summarize(findings),
		GeneratedAt:     time.Now().UTC(),
	}
}
