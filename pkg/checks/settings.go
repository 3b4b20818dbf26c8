package checks

// Settings configures the engine for one validation run. Zero value is not
// usable; start from DefaultSettings.
type Settings struct {
	// Profile names a threshold preset. Recognized: "display", "interstitial".
	Profile string
	// IABStandardDate picks the guideline revision the thresholds come from.
	// Recognized: "2017", "2020". Affects numbers only, never check identity.
	IABStandardDate string
	// AllowedHosts is the configured allow-list for external references,
	// matched by exact host or registrable domain.
	AllowedHosts []string
	// WeightBasis selects which figure the weight check compares against the
	// caps: "raw" (uncompressed sums) or "gzip" (estimated wire weight).
	WeightBasis string
	// Overrides, when set, replaces the preset thresholds entirely.
	Overrides *Thresholds
}

// Thresholds are the numeric caps the iabWeight and iabRequests checks apply.
// Byte caps are in KB (1024). Soft caps produce WARN, hard caps FAIL.
type Thresholds struct {
	InitialSoftKB int
	InitialHardKB int
	// SubloadKB caps the polite/subsequent load; informational beyond the
	// hard total implied by InitialHardKB+SubloadKB.
	SubloadKB   int
	RequestSoft int
	RequestHard int
}

func DefaultSettings() Settings {
	return Settings{
		Profile:         "display",
		IABStandardDate: "2020",
		WeightBasis:     "raw",
	}
}

// thresholdsFor resolves the effective thresholds for a run.
func thresholdsFor(s Settings) Thresholds {
	if s.Overrides != nil {
		return *s.Overrides
	}
	t := Thresholds{InitialSoftKB: 150, InitialHardKB: 300, SubloadKB: 1024, RequestSoft: 10, RequestHard: 15}
	if s.IABStandardDate == "2017" {
		// Pre-New-Ad-Portfolio numbers were laxer on weight, tighter on requests.
		t.InitialSoftKB, t.InitialHardKB = 200, 500
		t.RequestSoft, t.RequestHard = 15, 20
	}
	if s.Profile == "interstitial" {
		t.InitialSoftKB *= 2
		t.InitialHardKB *= 2
		t.SubloadKB = 2048
	}
	return t
}
