// Package checks is the rule engine: independent evaluators that consume a
// bundle plus the precomputed discovery/reference/budget data and emit typed
// findings. Checks never depend on each other's output.
package checks

import (
	"fmt"

	"github.com/adlint/adlint/pkg/budget"
	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/discovery"
	"github.com/adlint/adlint/pkg/refs"
)

// Severity is a three-value verdict with total order FAIL > WARN > PASS.
type Severity string

const (
	Pass Severity = "PASS"
	Warn Severity = "WARN"
	Fail Severity = "FAIL"
)

var severityRank = map[Severity]int{Pass: 0, Warn: 1, Fail: 2}

// Worse reports whether a ranks above b.
func (a Severity) Worse(b Severity) bool { return severityRank[a] > severityRank[b] }

// Offender is a concrete evidence location backing a finding.
type Offender struct {
	Path   string `json:"path"`
	Detail string `json:"detail,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// Finding is one check's verdict for one bundle.
type Finding struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Severity  Severity   `json:"severity"`
	Messages  []string   `json:"messages,omitempty"`
	Offenders []Offender `json:"offenders,omitempty"`
}

// Input is the shared precomputed pipeline data every check reads.
type Input struct {
	Discovery  discovery.Result
	Resolution refs.Resolution
	Budget     budget.Accounting
}

// CheckFunc evaluates one rule. Checks are pure over their inputs.
type CheckFunc func(b *bundle.Bundle, in Input, s Settings) Finding

type registered struct {
	ID    string
	Title string
	Fn    CheckFunc
}

var registry = []registered{
	{"packaging", "Packaging hygiene", checkPackaging},
	{"primaryAsset", "Primary asset and ad size", checkPrimaryAsset},
	{"assetReferences", "Asset references resolve", checkAssetReferences},
	{"orphanAssets", "Orphaned assets", checkOrphanAssets},
	{"externalResources", "External resources", checkExternalResources},
	{"httpsOnly", "HTTPS-only references", checkHTTPSOnly},
	{"clickTags", "Click-through wiring", checkClickTags},
	{"gwdEnvironment", "Google Web Designer runtime", checkGWDEnvironment},
	{"iabWeight", "IAB weight budget", checkIABWeight},
	{"iabRequests", "IAB request budget", checkIABRequests},
	{"systemArtifacts", "System artifacts", checkSystemArtifacts},
	{"hardcodedClickUrl", "Hardcoded click-through URLs", checkHardcodedClickURL},
}

// Run evaluates every registered check. A panicking check is isolated and
// synthesized into a FAIL finding so one bad rule can never blank the report.
func Run(b *bundle.Bundle, in Input, s Settings) []Finding {
	findings := make([]Finding, 0, len(registry))
	for _, reg := range registry {
		findings = append(findings, runOne(reg, b, in, s))
	}
	return findings
}

func runOne(reg registered, b *bundle.Bundle, in Input, s Settings) (f Finding) {
	defer func() {
		if r := recover(); r != nil {
			f = Finding{
				ID:       reg.ID,
				Title:    reg.Title,
				Severity: Fail,
				Messages: []string{fmt.Sprintf("check failed internally: %v", r)},
			}
		}
	}()
	f = reg.Fn(b, in, s)
	f.ID = reg.ID
	f.Title = reg.Title
	return f
}

// Summarize reduces findings to the bundle's overall status, worst-of.
func Summarize(findings []Finding) Severity {
	out := Pass
	for _, f := range findings {
		if f.Severity.Worse(out) {
			out = f.Severity
		}
	}
	return out
}

func pass(msgs ...string) Finding  { return Finding{Severity: Pass, Messages: msgs} }
func warn(msgs ...string) Finding  { return Finding{Severity: Warn, Messages: msgs} }
func fail(msgs ...string) Finding  { return Finding{Severity: Fail, Messages: msgs} }
