// Package budget partitions bundle bytes into initial vs. subsequent (polite)
// load and counts requests, feeding the IAB weight and request checks.
package budget

import (
	"bytes"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/refs"
)

// Accounting is the byte/request breakdown for one bundle.
type Accounting struct {
	TotalBytes      int64 `json:"totalBytes"`
	InitialBytes    int64 `json:"initialBytes"`
	SubsequentBytes int64 `json:"subsequentBytes"`
	ZippedBytes     int64 `json:"zippedBytes"`

	// Gzip figures estimate per-file wire weight. Which figure a threshold
	// check compares against is a profile decision, so both are carried.
	GzipTotalBytes   int64 `json:"gzipTotalBytes"`
	GzipInitialBytes int64 `json:"gzipInitialBytes"`

	InitialRequests int `json:"initialRequests"`
	TotalRequests   int `json:"totalRequests"`

	// ReferencedPaths is the primary plus the direct in-zip reference closure,
	// canonical and sorted.
	ReferencedPaths []string `json:"referencedPaths"`
}

// Account computes the byte-budget breakdown. primary may be "" when
// discovery failed; everything is then attributed to the initial load, which
// is the conservative reading for weight compliance.
func Account(b *bundle.Bundle, primary string, references []refs.Reference) Accounting {
	acc := Accounting{
		TotalBytes:  b.TotalBytes(),
		ZippedBytes: b.ZippedBytes(),
	}

	referenced := make(map[string]bool)
	if canonical, _, ok := b.Lookup(primary); primary != "" && ok {
		referenced[canonical] = true
	}
	for _, ref := range references {
		if ref.InZip {
			referenced[ref.Normalized] = true
		}
	}

	for p := range referenced {
		acc.ReferencedPaths = append(acc.ReferencedPaths, p)
		_, data, _ := b.Lookup(p)
		acc.InitialBytes += int64(len(data))
		acc.GzipInitialBytes += gzipSize(data)
	}
	sort.Strings(acc.ReferencedPaths)

	for _, data := range b.Files {
		acc.GzipTotalBytes += gzipSize(data)
	}

	// Reference extraction coming up empty means the split is meaningless;
	// treat the whole bundle as initial rather than under-reporting weight.
	if acc.InitialBytes == 0 {
		acc.InitialBytes = acc.TotalBytes
		acc.GzipInitialBytes = acc.GzipTotalBytes
	}

	acc.SubsequentBytes = acc.TotalBytes - acc.InitialBytes
	if acc.SubsequentBytes < 0 {
		acc.SubsequentBytes = 0
	}

	acc.InitialRequests = len(referenced)
	if acc.InitialRequests == 0 {
		acc.InitialRequests = 1
	}
	// No lazy-load detection yet, so total mirrors initial.
	acc.TotalRequests = acc.InitialRequests
	return acc
}

// gzipSize returns the gzip-compressed length of data at the default level,
// approximating what a CDN would put on the wire.
func gzipSize(data []byte) int64 {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return int64(len(data))
	}
	if err := w.Close(); err != nil {
		return int64(len(data))
	}
	return int64(buf.Len())
}
