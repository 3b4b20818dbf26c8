package report

import (
	"archive/zip"
	"bytes"
	"reflect"
	"testing"

	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/checks"
)

func mkBundle(t *testing.T, files map[string]string) *bundle.Bundle {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		f.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	b, err := bundle.FromZip("creative.zip", buf.Bytes())
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	return b
}

func sampleFiles() map[string]string {
	return map[string]string{
		"index.html": `<html><head>
<meta name="ad.size" content="width=300,height=250">
<link rel="stylesheet" href="style.css">
<script>var clickTag = "";</script>
</head><body><img src="img/banner.jpg"></body></html>`,
		"style.css":      "body { margin: 0 }",
		"img/banner.jpg": "jpg-bytes",
		"unused.png":     "orphan",
	}
}

func TestAnalyze(t *testing.T) {
	b := mkBundle(t, sampleFiles())
	r := Analyze(b, checks.DefaultSettings())

	if r.BundleID != b.ID || r.BundleName != "creative.zip" {
		t.Errorf("identity = %q/%q", r.BundleID, r.BundleName)
	}
	if r.Primary != "index.html" {
		t.Errorf("Primary = %q", r.Primary)
	}
	if r.AdSize == nil || r.AdSize.Width != 300 || r.AdSize.Height != 250 {
		t.Errorf("AdSize = %v", r.AdSize)
	}
	if r.InitialBytes+r.SubsequentBytes != r.TotalBytes {
		t.Errorf("budget split broken: %d + %d != %d",
			r.InitialBytes, r.SubsequentBytes, r.TotalBytes)
	}
	// unused.png is dead weight; the run degrades to WARN, never silently PASS.
	if r.Summary != checks.Warn {
		t.Errorf("Summary = %s", r.Summary)
	}
	if len(r.Findings) == 0 {
		t.Fatal("no findings")
	}
	if r.GeneratedAt.IsZero() {
		t.Error("GeneratedAt unset")
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	b := mkBundle(t, sampleFiles())
	s := checks.DefaultSettings()
	first := Analyze(b, s)
	second := Analyze(b, s)

	first.GeneratedAt = second.GeneratedAt
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated analysis of the same bundle diverged")
	}
}

func TestAnalyzeNoPrimary(t *testing.T) {
	b := mkBundle(t, map[string]string{"img/a.png": "x"})
	r := Analyze(b, checks.DefaultSettings())
	if r.Primary != "" {
		t.Errorf("Primary = %q", r.Primary)
	}
	if r.Summary != checks.Fail {
		t.Errorf("Summary = %s", r.Summary)
	}
	if r.InitialBytes != r.TotalBytes {
		t.Errorf("conservative fallback missing: initial %d, total %d", r.InitialBytes, r.TotalBytes)
	}
}
