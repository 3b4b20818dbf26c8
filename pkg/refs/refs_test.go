package refs

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/adlint/adlint/pkg/bundle"
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
	b, err := bundle.FromZip("test.zip", buf.Bytes())
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	return b
}

func findRef(refs []Reference, raw string) *Reference {
	for i := range refs {
		if refs[i].RawURL == raw {
			return &refs[i]
		}
	}
	return nil
}

func TestResolveBasic(t *testing.T) {
	b := mkBundle(t, map[string]string{
		"index.html": `<html><head>
			<meta name="ad.size" content="width=300,height=250">
			<link rel="stylesheet" href="css/style.css">
			</head><body>
			<img src="img/banner.jpg">
			<script src="https://cdn.example.com/lib.js"></script>
			<img src="data:image/gif;base64,R0lGOD">
			<a href="#top">top</a>
			</body></html>`,
		"css/style.css":  `#bg { background: url("../img/bg.png"); }`,
		"img/banner.jpg": "jpg",
		"img/bg.png":     "png",
	})
	res := Resolve(b, "index.html")

	if res.AdSize == nil || res.AdSize.Width != 300 || res.AdSize.Height != 250 {
		t.Fatalf("AdSize = %v", res.AdSize)
	}
	if res.AdSizeSource != SourceMetaAdSize {
		t.Errorf("AdSizeSource = %q", res.AdSizeSource)
	}

	css := findRef(res.References, "css/style.css")
	if css == nil || !css.InZip || css.Normalized != "css/style.css" {
		t.Errorf("stylesheet ref = %+v", css)
	}
	img := findRef(res.References, "img/banner.jpg")
	if img == nil || !img.InZip || img.Kind != KindAsset {
		t.Errorf("img ref = %+v", img)
	}
	// CSS-relative resolution: ../img/bg.png from css/ lands at img/bg.png.
	bg := findRef(res.References, "../img/bg.png")
	if bg == nil || !bg.InZip || bg.Normalized != "img/bg.png" {
		t.Errorf("css url ref = %+v", bg)
	}
	if bg != nil && bg.SourceFile != "css/style.css" {
		t.Errorf("css url SourceFile = %q", bg.SourceFile)
	}
	ext := findRef(res.References, "https://cdn.example.com/lib.js")
	if ext == nil || ext.Kind != KindExternal || ext.InZip {
		t.Errorf("external ref = %+v", ext)
	}
	if d := findRef(res.References, "data:image/gif;base64,R0lGOD"); d == nil || d.Kind != KindData {
		t.Errorf("data ref = %+v", d)
	}
	if f := findRef(res.References, "#top"); f != nil {
		t.Errorf("fragment should be skipped, got %+v", f)
	}
}

func TestResolveMissingAsset(t *testing.T) {
	b := mkBundle(t, map[string]string{
		"index.html": `<html><body><img src="img/banner.jpg"></body></html>`,
	})
	res := Resolve(b, "index.html")
	ref := findRef(res.References, "img/banner.jpg")
	if ref == nil {
		t.Fatal("missing-asset reference not emitted")
	}
	if ref.InZip {
		t.Error("missing asset marked InZip")
	}
	if ref.Normalized != "img/banner.jpg" {
		t.Errorf("Normalized = %q", ref.Normalized)
	}
}

func TestResolveImportCycle(t *testing.T) {
	b := mkBundle(t, map[string]string{
		"index.html": `<html><head><link rel="stylesheet" href="a.css"></head></html>`,
		"a.css":      `@import "b.css";`,
		"b.css":      `@import "a.css"; body { color: red; }`,
	})
	res := Resolve(b, "index.html")
	if r := findRef(res.References, "b.css"); r == nil || !r.InZip {
		t.Errorf("import not followed: %+v", r)
	}
	// The cycle back to a.css must not loop; one pass terminates.
	if len(res.References) > 10 {
		t.Errorf("reference explosion: %d refs", len(res.References))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
		ok   bool
	}{
		{"img/a.png", KindAsset, true},
		{"https://x.com/a.js", KindExternal, true},
		{"//cdn.x.com/a.js", KindExternal, true},
		{"data:text/plain,hi", KindData, true},
		{"javascript:void(0)", "", false},
		{"about:blank", "", false},
		{"#anchor", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		kind, ok := classify(tt.raw)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("classify(%q) = %q, %v; want %q, %v", tt.raw, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestAdSizePriority(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		width  int
		height int
		source SizeSource
	}{
		{
			name: "meta name wxh",
			files: map[string]string{
				"index.html": `<html><head><meta name="728x90"></head></html>`,
			},
			width: 728, height: 90, source: SourceMetaName,
		},
		{
			name: "path segment",
			files: map[string]string{
				"300x600/index.html": `<html></html>`,
			},
			width: 300, height: 600, source: SourcePathSegment,
		},
		{
			name: "candidate selector inline style",
			files: map[string]string{
				"index.html": `<html><body><div id="container" style="width:160px;height:600px"></div></body></html>`,
			},
			width: 160, height: 600, source: SourceCandidateSelector,
		},
		{
			name: "candidate selector stylesheet",
			files: map[string]string{
				"index.html": `<html><head><link rel="stylesheet" href="style.css"></head><body><div id="bg"></div></body></html>`,
				"style.css":  `#bg { width: 970px; height: 250px; }`,
			},
			width: 970, height: 250, source: SourceCandidateSelector,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mkBundle(t, tt.files)
			primary := ""
			for p := range tt.files {
				if bundle.IsHTML(p) {
					primary = p
				}
			}
			res := Resolve(b, primary)
			if res.AdSize == nil {
				t.Fatalf("no size detected")
			}
			if res.AdSize.Width != tt.width || res.AdSize.Height != tt.height {
				t.Errorf("size = %s", res.AdSize)
			}
			if res.AdSizeSource != tt.source {
				t.Errorf("source = %q, want %q", res.AdSizeSource, tt.source)
			}
		})
	}
}

func TestAdSizeMetaBeatsPath(t *testing.T) {
	b := mkBundle(t, map[string]string{
		"160x600/index.html": `<html><head><meta name="ad.size" content="width=300,height=250"></head></html>`,
	})
	res := Resolve(b, "160x600/index.html")
	if res.AdSize == nil || res.AdSize.Width != 300 {
		t.Fatalf("AdSize = %v", res.AdSize)
	}
	if res.AdSizeSource != SourceMetaAdSize {
		t.Errorf("source = %q", res.AdSizeSource)
	}
}

func TestRuleBody(t *testing.T) {
	css := `body { margin: 0 } #bg, #container { width: 300px; height: 250px }`
	if got := ruleBody(css, "#container"); got == "" {
		t.Fatal("selector in list not found")
	}
	if got := ruleBody(css, "#missing"); got != "" {
		t.Errorf("unexpected match: %q", got)
	}
}
