package refs

import "regexp"

var (
	cssURLRe    = regexp.MustCompile(`url\(\s*['"]?([^'")]+?)['"]?\s*\)`)
	cssImportRe = regexp.MustCompile(`@import\s+['"]([^'"]+)['"]`)
)

// scanCSS extracts url() and @import targets from stylesheet text. Duplicate
// raw targets within one scan are collapsed; @import url(...) forms are
// already covered by the url() pattern.
func scanCSS(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(raw string) {
		if raw == "" || seen[raw] {
			return
		}
		seen[raw] = true
		out = append(out, raw)
	}
	for _, m := range cssURLRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range cssImportRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return out
}
