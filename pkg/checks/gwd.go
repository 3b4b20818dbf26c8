package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/adlint/adlint/pkg/bundle"
)

var (
	gwdElementRe   = regexp.MustCompile(`(?i)<gwd-[a-z-]+`)
	gwdAttrRe      = regexp.MustCompile(`(?i)\bdata-gwd-[a-z-]+\s*=`)
	gwdGeneratorRe = regexp.MustCompile(`(?i)<meta[^>]+content\s*=\s*["'][^"']*google web designer`)
)

// checkGWDEnvironment flags Google Web Designer runtime markers. Informational:
// GWD creatives carry their own Enabler bootstrap and platforms treat them
// differently, so trafficking teams want to know.
func checkGWDEnvironment(b *bundle.Bundle, in Input, s Settings) Finding {
	var offenders []Offender
	for _, p := range b.Paths() {
		base := strings.ToLower(p)
		if strings.Contains(base, "gwd") && bundle.Ext(p) == ".js" {
			offenders = append(offenders, Offender{Path: p, Detail: "GWD runtime script"})
			continue
		}
		_, data, _ := b.Lookup(p)
		switch {
		case bundle.IsHTML(p):
			text := string(data)
			if gwdGeneratorRe.MatchString(text) {
				offenders = append(offenders, Offender{Path: p, Detail: "Google Web Designer generator meta"})
			} else if gwdElementRe.MatchString(text) || gwdAttrRe.MatchString(text) {
				offenders = append(offenders, Offender{Path: p, Detail: "gwd- markup"})
			}
		case bundle.Ext(p) == ".json":
			// GWD publish manifests identify themselves loosely; probe the
			// usual keys without committing to a schema.
			j := string(data)
			if gjson.Get(j, "gwdVersion").Exists() ||
				strings.Contains(strings.ToLower(gjson.Get(j, "generator").String()), "google web designer") ||
				strings.Contains(strings.ToLower(gjson.Get(j, "environment").String()), "gwd") {
				offenders = append(offenders, Offender{Path: p, Detail: "GWD publish manifest"})
			}
		}
	}

	if len(offenders) > 0 {
		f := warn(fmt.Sprintf("Google Web Designer runtime detected (%d marker(s))", len(offenders)))
		f.Offenders = offenders
		return f
	}
	return pass("No Google Web Designer markers")
}
