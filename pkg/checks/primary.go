package checks

import (
	"fmt"

	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/refs"
)

func checkPrimaryAsset(b *bundle.Bundle, in Input, s Settings) Finding {
	if in.Discovery.Primary == "" {
		f := fail("No primary HTML asset could be determined")
		f.Messages = append(f.Messages, in.Discovery.Messages...)
		for _, c := range in.Discovery.HTMLCandidates {
			f.Offenders = append(f.Offenders, Offender{Path: c, Detail: "candidate"})
		}
		return f
	}

	if in.Resolution.AdSize == nil {
		f := fail(fmt.Sprintf("Primary %s found but no ad size could be derived", in.Discovery.Primary))
		f.Offenders = []Offender{{Path: in.Discovery.Primary, Detail: "missing ad.size meta tag"}}
		return f
	}

	msg := fmt.Sprintf("Primary %s, size %s (via %s)",
		in.Discovery.Primary, in.Resolution.AdSize, in.Resolution.AdSizeSource)
	if in.Resolution.AdSizeSource == refs.SourceCandidateSelector {
		f := warn(msg, "Size derived from element dimensions, not a declared ad.size meta tag; add one")
		f.Offenders = []Offender{{Path: in.Discovery.Primary, Detail: "low-confidence size detection"}}
		return f
	}
	f := pass(msg)
	f.Messages = append(f.Messages, in.Discovery.Messages...)
	return f
}
