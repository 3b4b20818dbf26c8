// Package discovery picks the primary HTML entry point of a creative bundle.
package discovery

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/adlint/adlint/pkg/bundle"
)

// Result describes the outcome of primary discovery. Primary is "" when no
// unambiguous entry point exists; Messages carries the advisory trail either way.
type Result struct {
	Primary        string
	HTMLCandidates []string
	Messages       []string
}

var adSizeMetaRe = regexp.MustCompile(`(?is)<meta[^>]+name\s*=\s*["']?ad\.size["']?[^>]*>`)

// Discover scans the bundle for HTML files and disambiguates the primary
// creative document. Pure function over the bundle; ambiguity is expressed as
// an empty Primary plus messages, never an error.
func Discover(b *bundle.Bundle) Result {
	var res Result
	for _, p := range b.Paths() {
		// AppleDouble forks like __MACOSX/._index.html are HTML by extension
		// only; counting them would make macOS-zipped bundles ambiguous.
		if bundle.IsHTML(p) && !bundle.IsSystemArtifact(p) {
			res.HTMLCandidates = append(res.HTMLCandidates, p)
		}
	}
	sort.Strings(res.HTMLCandidates)

	switch len(res.HTMLCandidates) {
	case 0:
		res.Messages = append(res.Messages, "No HTML files present")
		return res
	case 1:
		res.Primary = res.HTMLCandidates[0]
		return res
	}

	// Multiple candidates: the one declaring an ad.size meta tag wins.
	var withMeta []string
	for _, p := range res.HTMLCandidates {
		_, data, _ := b.Lookup(p)
		if adSizeMetaRe.Match(data) {
			withMeta = append(withMeta, p)
		}
	}

	switch len(withMeta) {
	case 1:
		res.Primary = withMeta[0]
	case 0:
		res.Messages = append(res.Messages, "Multiple HTML files without ad.size meta; ambiguous")
	default:
		// Tie-break: shallowest path first, then shortest name. Candidates are
		// already sorted, so the outcome is stable across runs.
		sort.SliceStable(withMeta, func(i, j int) bool {
			di, dj := bundle.Depth(withMeta[i]), bundle.Depth(withMeta[j])
			if di != dj {
				return di < dj
			}
			return len(withMeta[i]) < len(withMeta[j])
		})
		res.Primary = withMeta[0]
		res.Messages = append(res.Messages,
			fmt.Sprintf("Multiple HTML files declare ad.size; chose %s", res.Primary))
	}
	return res
}
