package bundle

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"index.html", "index.html"},
		{"/index.html", "index.html"},
		{"a/./b.png", "a/b.png"},
		{"a/../b.png", "b.png"},
		{"a\\b\\c.js", "a/b/c.js"},
		{"a//b.css", "a/b.css"},
		{"../../up.gif", "up.gif"},
		{"a/b/../../../clamped.png", "clamped.png"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		base, ref, want string
	}{
		{"", "img/a.png", "img/a.png"},
		{"creative", "img/a.png", "creative/img/a.png"},
		{"creative/css", "../img/a.png", "creative/img/a.png"},
		{"creative", "/root.png", "root.png"},
		{"creative", "a.png?v=2", "creative/a.png"},
		{"creative", "a.png#frag", "creative/a.png"},
		{"a/b", "../../../../deep.png", "deep.png"},
	}
	for _, c := range cases {
		if got := Resolve(c.base, c.ref); got != c.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", c.base, c.ref, got, c.want)
		}
	}
}

func TestResolveFixedPoint(t *testing.T) {
	// Normalization is a fixed point: re-resolving a resolved path against
	// the empty base must not change it.
	refs := []string{"img/../a.png", "css/style.css", "../x/y.js", "deep/./path/file.gif"}
	for _, r := range refs {
		once := Resolve("base/dir", r)
		if again := Resolve("", once); again != once {
			t.Errorf("Resolve not stable for %q: %q != %q", r, again, once)
		}
	}
}

func TestDir(t *testing.T) {
	if d := Dir("index.html"); d != "" {
		t.Errorf("Dir(index.html) = %q, want empty", d)
	}
	if d := Dir("a/b/index.html"); d != "a/b" {
		t.Errorf("Dir(a/b/index.html) = %q, want a/b", d)
	}
}

func TestIsSystemArtifact(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"__MACOSX/._index.html", true},
		{"assets/__MACOSX/._a.png", true},
		{"._index.html", true},
		{".DS_Store", true},
		{"img/Thumbs.db", true},
		{"desktop.ini", true},
		{"index.html", false},
		{"img/banner.jpg", false},
		{"my._file/asset.png", false},
	}
	for _, tt := range tests {
		if got := IsSystemArtifact(tt.path); got != tt.want {
			t.Errorf("IsSystemArtifact(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
