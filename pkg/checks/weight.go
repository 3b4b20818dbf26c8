package checks

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/adlint/adlint/pkg/bundle"
)

func checkIABWeight(b *bundle.Bundle, in Input, s Settings) Finding {
	t := thresholdsFor(s)

	initial, total := in.Budget.InitialBytes, in.Budget.TotalBytes
	subsequent := in.Budget.SubsequentBytes
	basis := "uncompressed"
	if s.WeightBasis == "gzip" {
		initial, total = in.Budget.GzipInitialBytes, in.Budget.GzipTotalBytes
		subsequent = total - initial
		if subsequent < 0 {
			subsequent = 0
		}
		basis = "gzip-estimated"
	}

	softCap := int64(t.InitialSoftKB) * 1024
	hardCap := int64(t.InitialHardKB) * 1024
	politeCap := int64(t.SubloadKB) * 1024

	detail := fmt.Sprintf("initial %s, subsequent %s, total %s (%s; archive %s on disk)",
		humanize.IBytes(uint64(initial)),
		humanize.IBytes(uint64(subsequent)),
		humanize.IBytes(uint64(total)),
		basis,
		humanize.IBytes(uint64(in.Budget.ZippedBytes)))

	switch {
	case initial > hardCap:
		return fail(fmt.Sprintf("Initial load exceeds the %d KB hard cap: %s", t.InitialHardKB, detail))
	case initial > softCap:
		return warn(fmt.Sprintf("Initial load exceeds the %d KB polite cap: %s", t.InitialSoftKB, detail))
	case subsequent > politeCap:
		return warn(fmt.Sprintf("Subsequent load exceeds the %d KB allowance: %s", t.SubloadKB, detail))
	}
	return pass(fmt.Sprintf("Within the %d KB initial-load budget: %s", t.InitialSoftKB, detail))
}

func checkIABRequests(b *bundle.Bundle, in Input, s Settings) Finding {
	t := thresholdsFor(s)
	n := in.Budget.InitialRequests

	// Initial and total counts are currently the same heuristic; lazy-loaded
	// assets are not detected separately.
	detail := fmt.Sprintf("%d initial request(s)", n)

	switch {
	case n > t.RequestHard:
		return fail(fmt.Sprintf("Request count over the hard cap of %d: %s", t.RequestHard, detail))
	case n > t.RequestSoft:
		return warn(fmt.Sprintf("Request count over the recommended cap of %d: %s", t.RequestSoft, detail))
	}
	return pass(fmt.Sprintf("Within the %d-request budget: %s", t.RequestSoft, detail))
}
