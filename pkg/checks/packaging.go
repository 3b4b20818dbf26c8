package checks

import (
	"fmt"

	"github.com/adlint/adlint/pkg/bundle"
)

// allowedExtensions is the set of file types ad platforms accept inside an
// HTML5 creative archive.
var allowedExtensions = map[string]bool{
	".html": true, ".htm": true, ".css": true, ".js": true, ".mjs": true,
	".json": true, ".xml": true, ".svg": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true,
	".mp4": true, ".webm": true, ".ogv": true, ".mp3": true, ".ogg": true, ".wav": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".txt": true, ".csv": true,
}

var nestedArchiveExtensions = map[string]bool{
	".zip": true, ".rar": true, ".7z": true, ".gz": true, ".tar": true, ".bz2": true,
}

func checkPackaging(b *bundle.Bundle, in Input, s Settings) Finding {
	var nested, disallowed []Offender
	for _, p := range b.Paths() {
		if bundle.IsSystemArtifact(p) {
			// systemArtifacts reports these; double-flagging them here would
			// turn an always-WARN condition into a FAIL.
			continue
		}
		ext := bundle.Ext(p)
		switch {
		case nestedArchiveExtensions[ext]:
			nested = append(nested, Offender{Path: p, Detail: "nested archive"})
		case !allowedExtensions[ext]:
			disallowed = append(disallowed, Offender{Path: p, Detail: "disallowed file type " + displayExt(ext)})
		}
	}

	if len(disallowed) > 0 {
		f := fail(fmt.Sprintf("%d file(s) of disallowed type in archive", len(disallowed)))
		f.Offenders = append(disallowed, nested...)
		return f
	}
	if len(nested) > 0 {
		f := warn(fmt.Sprintf("%d nested archive(s) found; platforms reject nested packaging", len(nested)))
		f.Offenders = nested
		return f
	}
	return pass(fmt.Sprintf("All %d files are accepted types", len(b.Files)))
}

func displayExt(ext string) string {
	if ext == "" {
		return "(no extension)"
	}
	return ext
}

func checkSystemArtifacts(b *bundle.Bundle, in Input, s Settings) Finding {
	var offenders []Offender
	for _, p := range b.Paths() {
		if bundle.IsSystemArtifact(p) {
			offenders = append(offenders, Offender{Path: p})
		}
	}
	if len(offenders) > 0 {
		f := warn(fmt.Sprintf("%d OS metadata file(s) present; strip them before trafficking", len(offenders)))
		f.Offenders = offenders
		return f
	}
	return pass("No OS metadata files present")
}
