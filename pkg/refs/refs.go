// Package refs builds the asset-reference graph of a creative: every src/href
// and CSS url() reachable from the primary document, resolved against the
// bundle and classified as in-zip, external or data.
package refs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adlint/adlint/pkg/bundle"
)

// Kind classifies where a reference points.
type Kind string

const (
	KindAsset    Kind = "asset"
	KindExternal Kind = "external"
	KindData     Kind = "data"
)

// Reference is one src/href/url() occurrence found while walking the primary
// document and the stylesheets it pulls in.
type Reference struct {
	RawURL     string `json:"rawUrl"`
	Normalized string `json:"normalized,omitempty"`
	InZip      bool   `json:"inZip"`
	SourceFile string `json:"sourceFile"`
	Kind       Kind   `json:"kind"`
}

// AdSize is the declared creative dimension.
type AdSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s AdSize) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// SizeSource records which detection rule produced the AdSize. The rules run
// in a fixed priority order; CandidateSelector is the low-confidence fallback.
type SizeSource string

const (
	SourceMetaAdSize        SizeSource = "meta-ad-size"
	SourceMetaName          SizeSource = "meta-name"
	SourceMetaContent       SizeSource = "meta-content"
	SourcePathSegment       SizeSource = "path-segment"
	SourceCandidateSelector SizeSource = "candidate-selector"
)

// Resolution is the output of one resolver pass over a primary document.
type Resolution struct {
	AdSize       *AdSize     `json:"adSize,omitempty"`
	AdSizeSource SizeSource  `json:"adSizeSource,omitempty"`
	References   []Reference `json:"references"`
	Diagnostics  []string    `json:"diagnostics,omitempty"`
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// classify decides what a raw URL is. The second return is false for targets
// that should not be emitted as references at all (empty, fragment-only,
// javascript: and friends).
func classify(raw string) (Kind, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "about:") {
		return "", false
	}
	if strings.HasPrefix(lower, "data:") {
		return KindData, true
	}
	if strings.HasPrefix(lower, "//") || schemeRe.MatchString(raw) {
		return KindExternal, true
	}
	return KindAsset, true
}

// Resolve walks the primary HTML document and every in-zip stylesheet it
// references (transitively) and returns the reference graph plus the detected
// ad size. Individual extraction failures are recorded as diagnostics and
// never abort the pass.
func Resolve(b *bundle.Bundle, primary string) Resolution {
	var res Resolution
	canonical, data, ok := b.Lookup(primary)
	if !ok {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("primary %s not found in bundle", primary))
		return res
	}

	w := &walker{
		bundle:  b,
		res:     &res,
		visited: map[string]bool{canonical: true},
	}

	doc, err := parseHTML(data)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("parsing %s: %v", canonical, err))
	} else {
		w.walkHTML(doc, canonical)
	}

	// Follow in-zip stylesheets collected while walking the markup.
	for i := 0; i < len(res.References); i++ {
		ref := res.References[i]
		if ref.InZip && bundle.IsCSS(ref.Normalized) {
			w.walkCSSFile(ref.Normalized)
		}
	}

	res.AdSize, res.AdSizeSource = detectAdSize(canonical, doc, w.cssTexts)
	return res
}

type walker struct {
	bundle   *bundle.Bundle
	res      *Resolution
	visited  map[string]bool
	cssTexts []string
}

// emit records one raw URL occurrence found in sourceFile.
func (w *walker) emit(raw, sourceFile string) {
	kind, ok := classify(raw)
	if !ok {
		return
	}
	ref := Reference{RawURL: strings.TrimSpace(raw), SourceFile: sourceFile, Kind: kind}
	if kind == KindAsset {
		resolved := bundle.Resolve(bundle.Dir(sourceFile), ref.RawURL)
		if canonical, _, found := w.bundle.Lookup(resolved); found {
			ref.Normalized = canonical
			ref.InZip = true
		} else {
			ref.Normalized = resolved
		}
	}
	w.res.References = append(w.res.References, ref)
}

// walkCSSFile scans one in-zip stylesheet for url()/@import targets. Imported
// stylesheets are followed through the same path; the visited set breaks
// @import cycles.
func (w *walker) walkCSSFile(path string) {
	canonical, data, ok := w.bundle.Lookup(path)
	if !ok || w.visited[canonical] {
		return
	}
	w.visited[canonical] = true
	text := string(data)
	w.cssTexts = append(w.cssTexts, text)
	for _, raw := range scanCSS(text) {
		w.emit(raw, canonical)
	}
}
