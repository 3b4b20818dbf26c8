package bundle

import (
	"archive/zip"
	"bytes"
	"testing"
)

func mkZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestFromZip(t *testing.T) {
	raw := mkZip(t, map[string]string{
		"index.html":    "<html></html>",
		"Img/Beach.JPG": "jpgbytes",
	})
	b, err := FromZip("ad.zip", raw)
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	if len(b.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(b.Files))
	}
	if b.ZippedBytes() != int64(len(raw)) {
		t.Errorf("ZippedBytes = %d, want %d", b.ZippedBytes(), len(raw))
	}
	if b.TotalBytes() != int64(len("<html></html>")+len("jpgbytes")) {
		t.Errorf("TotalBytes = %d", b.TotalBytes())
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	b, err := FromZip("ad.zip", mkZip(t, map[string]string{"Img/Beach.JPG": "x"}))
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	canonical, data, ok := b.Lookup("img/beach.jpg")
	if !ok {
		t.Fatal("expected case-insensitive hit")
	}
	if canonical != "Img/Beach.JPG" {
		t.Errorf("canonical = %q", canonical)
	}
	if string(data) != "x" {
		t.Errorf("data = %q", data)
	}
	if _, _, ok := b.Lookup("img/missing.jpg"); ok {
		t.Error("expected miss for absent file")
	}
}

func TestFromZipRejectsGarbage(t *testing.T) {
	if _, err := FromZip("bad.zip", []byte("not a zip")); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestPathsSorted(t *testing.T) {
	b, err := FromZip("ad.zip", mkZip(t, map[string]string{"z.png": "1", "a.png": "2", "m/x.css": "3"}))
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	paths := b.Paths()
	if paths[0] != "a.png" || paths[1] != "m/x.css" || paths[2] != "z.png" {
		t.Errorf("Paths not sorted: %v", paths)
	}
}
