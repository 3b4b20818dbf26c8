package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Bundle is the in-memory representation of one decompressed creative archive.
// It is immutable once built: discovery, checks and preview sessions all share
// the same Bundle read-only.
type Bundle struct {
	ID       string
	Name     string
	RawBytes []byte

	// Files maps normalized paths to file contents.
	Files map[string][]byte

	// lowerIndex maps lowercased paths to the canonical key in Files, so
	// lookups tolerate archives that mix case between references and entries.
	lowerIndex map[string]string
}

// FromZip builds a Bundle from raw ZIP bytes. Directory entries are skipped;
// OS metadata files stay in so the artifact checks can report them.
func FromZip(name string, raw []byte) (*Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", name, err)
	}

	b := &Bundle{
		ID:         uuid.NewString(),
		Name:       name,
		RawBytes:   raw,
		Files:      make(map[string][]byte),
		lowerIndex: make(map[string]string),
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		norm := Normalize(f.Name)
		if norm == "" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in %s: %w", f.Name, name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extracting %s in %s: %w", f.Name, name, err)
		}
		b.Files[norm] = data
		b.lowerIndex[strings.ToLower(norm)] = norm
	}

	if len(b.Files) == 0 {
		return nil, fmt.Errorf("archive %s contains no files", name)
	}
	return b, nil
}

// Lookup finds a file by path, case-insensitively. It returns the canonical
// key, the content and whether the file exists.
func (b *Bundle) Lookup(p string) (string, []byte, bool) {
	norm := Normalize(p)
	if data, ok := b.Files[norm]; ok {
		return norm, data, true
	}
	if canonical, ok := b.lowerIndex[strings.ToLower(norm)]; ok {
		return canonical, b.Files[canonical], true
	}
	return "", nil, false
}

// Has reports whether a path resolves to an entry, case-insensitively.
func (b *Bundle) Has(p string) bool {
	_, _, ok := b.Lookup(p)
	return ok
}

// Paths returns every canonical path in deterministic (sorted) order.
func (b *Bundle) Paths() []string {
	out := make([]string, 0, len(b.Files))
	for p := range b.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// TotalBytes is the uncompressed size of every entry summed.
func (b *Bundle) TotalBytes() int64 {
	var n int64
	for _, data := range b.Files {
		n += int64(len(data))
	}
	return n
}

// ZippedBytes is the literal compressed archive length.
func (b *Bundle) ZippedBytes() int64 {
	return int64(len(b.RawBytes))
}
