package checks

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/adlint/adlint/pkg/bundle"
)

var (
	clickTagRe     = regexp.MustCompile(`(?i)\bclicktags?\d*\s*=`)
	enablerExitRe  = regexp.MustCompile(`\bEnabler\s*\.\s*(exit|exitOverride|dynamicExit)\s*\(`)
	windowOpenRe   = regexp.MustCompile(`window\s*\.\s*open\s*\(\s*['"]https?://`)
	locationSetRe  = regexp.MustCompile(`(?:window\s*\.\s*)?location(?:\s*\.\s*href)?\s*=\s*['"]https?://`)
	anchorHardRe   = regexp.MustCompile(`(?i)<a[^>]+href\s*=\s*["']https?://`)
	hardcodedNavRe = regexp.MustCompile(`(?i)(?:window\s*\.\s*open\s*\(\s*|location(?:\s*\.\s*href)?\s*=\s*|\bclicktags?\d*\s*=\s*|<a[^>]+href\s*=\s*)["'](https?://[^"']+)["']`)
)

// codeFiles returns every HTML and JS file in the bundle, sorted, as
// path/text pairs. Click wiring can live in any script, referenced or not.
func codeFiles(b *bundle.Bundle) [][2]string {
	var out [][2]string
	for _, p := range b.Paths() {
		if bundle.IsHTML(p) || bundle.Ext(p) == ".js" || bundle.Ext(p) == ".mjs" {
			_, data, _ := b.Lookup(p)
			out = append(out, [2]string{p, string(data)})
		}
	}
	return out
}

func checkClickTags(b *bundle.Bundle, in Input, s Settings) Finding {
	mechanisms := make(map[string][]string) // mechanism -> files
	for _, file := range codeFiles(b) {
		p, text := file[0], file[1]
		if clickTagRe.MatchString(text) {
			mechanisms["clickTag"] = append(mechanisms["clickTag"], p)
		}
		if enablerExitRe.MatchString(text) {
			mechanisms["Enabler.exit"] = append(mechanisms["Enabler.exit"], p)
		}
		if windowOpenRe.MatchString(text) || locationSetRe.MatchString(text) ||
			(bundle.IsHTML(p) && anchorHardRe.MatchString(text)) {
			mechanisms["hard navigation"] = append(mechanisms["hard navigation"], p)
		}
	}

	if len(mechanisms) == 0 {
		return fail("No click-through mechanism found (no clickTag variable, Enabler.exit call or navigation)")
	}

	names := make([]string, 0, len(mechanisms))
	for name := range mechanisms {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(mechanisms) > 1 {
		f := warn(fmt.Sprintf("Multiple click mechanisms present (%s); inconsistent exit behavior across platforms",
			strings.Join(names, ", ")))
		for _, name := range names {
			for _, p := range mechanisms[name] {
				f.Offenders = append(f.Offenders, Offender{Path: p, Detail: name})
			}
		}
		return f
	}

	only := names[0]
	f := pass(fmt.Sprintf("Click-through wired via %s", only))
	for _, p := range mechanisms[only] {
		f.Offenders = append(f.Offenders, Offender{Path: p, Detail: only})
	}
	return f
}

// isMacroURL reports whether a URL literal is really an ad-server macro
// placeholder rather than a hardcoded destination.
func isMacroURL(u string) bool {
	return strings.Contains(u, "%%") || strings.Contains(u, "${") ||
		strings.Contains(u, "[CLICK") || strings.Contains(u, "{{")
}

func checkHardcodedClickURL(b *bundle.Bundle, in Input, s Settings) Finding {
	var offenders []Offender
	for _, file := range codeFiles(b) {
		p, text := file[0], file[1]
		for _, m := range hardcodedNavRe.FindAllStringSubmatch(text, -1) {
			u := m[1]
			if isMacroURL(u) {
				continue
			}
			offenders = append(offenders, Offender{Path: p, Detail: u})
		}
	}
	if len(offenders) > 0 {
		f := fail(fmt.Sprintf("%d hardcoded click-through URL(s); destinations must flow through clickTag macros", len(offenders)))
		f.Offenders = offenders
		return f
	}
	return pass("No hardcoded click-through URLs")
}
