package server

import (
	"strings"
	"testing"
)

// The creative iframe must keep scripts and same-origin storage working while
// only permitting top navigation on a real user gesture.
func TestHostPageSandboxAttributes(t *testing.T) {
	data, err := WebFS.ReadFile("web/index.html")
	if err != nil {
		t.Fatalf("reading embedded host page: %v", err)
	}
	page := string(data)

	start := strings.Index(page, `sandbox="`)
	if start < 0 {
		t.Fatal("preview iframe carries no sandbox attribute")
	}
	rest := page[start+len(`sandbox="`):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatal("unterminated sandbox attribute")
	}

	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(rest[:end]) {
		tokens[tok] = true
	}

	for _, required := range []string{
		"allow-scripts",
		"allow-same-origin",
		"allow-top-navigation-by-user-activation",
	} {
		if !tokens[required] {
			t.Errorf("sandbox attribute missing %q", required)
		}
	}
	for _, forbidden := range []string{
		"allow-top-navigation",
		"allow-popups",
		"allow-downloads",
		"allow-modals",
	} {
		if tokens[forbidden] {
			t.Errorf("sandbox attribute grants %q", forbidden)
		}
	}
}
