package checks

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/refs"
)

// knownVendorDomains are ad-serving and measurement hosts creatives routinely
// call out to. They pass the disallowed-host bar but still get flagged when
// not on the configured allow-list.
var knownVendorDomains = map[string]bool{
	"2mdn.net":            true,
	"doubleclick.net":     true,
	"googlesyndication.com": true,
	"google.com":          true,
	"googleapis.com":      true,
	"gstatic.com":         true,
	"googletagservices.com": true,
	"adsafeprotected.com": true,
	"doubleverify.com":    true,
	"moatads.com":         true,
	"iasds01.com":         true,
	"celtra.com":          true,
	"sizmek.com":          true,
}

// externalHost extracts the hostname of an external reference. Protocol-
// relative targets are parsed as https.
func externalHost(raw string) string {
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// registrable collapses a host to its registrable domain, falling back to the
// host itself for IPs and unlisted suffixes.
func registrable(host string) string {
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return domain
}

func checkExternalResources(b *bundle.Bundle, in Input, s Settings) Finding {
	allowed := make(map[string]bool, len(s.AllowedHosts))
	for _, h := range s.AllowedHosts {
		allowed[strings.ToLower(h)] = true
	}

	var unlisted, disallowed []Offender
	seen := make(map[string]bool)
	externals := 0
	for _, ref := range in.Resolution.References {
		if ref.Kind != refs.KindExternal {
			continue
		}
		externals++
		host := strings.ToLower(externalHost(ref.RawURL))
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		domain := registrable(host)
		switch {
		case allowed[host] || allowed[domain]:
			// explicitly permitted
		case knownVendorDomains[domain]:
			unlisted = append(unlisted, Offender{Path: ref.SourceFile,
				Detail: fmt.Sprintf("%s (known vendor %s, not on the allow-list)", host, domain)})
		default:
			disallowed = append(disallowed, Offender{Path: ref.SourceFile,
				Detail: fmt.Sprintf("%s (%s)", host, ref.RawURL)})
		}
	}

	if len(disallowed) > 0 {
		f := fail(fmt.Sprintf("%d external host(s) not permitted", len(disallowed)))
		f.Offenders = append(disallowed, unlisted...)
		return f
	}
	if len(unlisted) > 0 {
		f := warn(fmt.Sprintf("%d known vendor host(s) used but absent from the configured allow-list", len(unlisted)))
		f.Offenders = unlisted
		return f
	}
	if externals == 0 {
		return pass("No external references")
	}
	return pass(fmt.Sprintf("All %d external reference(s) use permitted hosts", externals))
}

func checkHTTPSOnly(b *bundle.Bundle, in Input, s Settings) Finding {
	var offenders []Offender
	externals := 0
	for _, ref := range in.Resolution.References {
		if ref.Kind != refs.KindExternal {
			continue
		}
		externals++
		if strings.HasPrefix(strings.ToLower(ref.RawURL), "http://") {
			offenders = append(offenders, Offender{Path: ref.SourceFile, Detail: ref.RawURL})
		}
	}
	if len(offenders) > 0 {
		f := fail(fmt.Sprintf("%d insecure http:// reference(s); secure ad serving requires https", len(offenders)))
		f.Offenders = offenders
		return f
	}
	if externals == 0 {
		return pass("No external references")
	}
	return pass(fmt.Sprintf("All %d external reference(s) are https or protocol-relative", externals))
}
