package bundle

import (
	"path"
	"strings"
)

// Normalize turns an archive entry name or reference target into the canonical
// key format: forward slashes, no leading slash, "." and ".." segments collapsed.
// Over-popping ".." segments are clamped at the root instead of erroring.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "/")

	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			// skip
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, "/")
}

// Resolve resolves a relative reference against a base directory and normalizes
// the result. Query strings and fragments are stripped first, since archive
// entries never carry them.
func Resolve(baseDir, ref string) string {
	ref = StripQuery(ref)
	if strings.HasPrefix(ref, "/") {
		// Root-relative references resolve against the archive root.
		return Normalize(ref)
	}
	if baseDir == "" {
		return Normalize(ref)
	}
	return Normalize(baseDir + "/" + ref)
}

// Dir returns the directory portion of a normalized path, "" for root-level files.
func Dir(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// StripQuery removes "?..." and "#..." suffixes from a reference target.
func StripQuery(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}

// Depth counts the path separators of a normalized path. Used for shallowest-wins
// tie-breaking during primary discovery.
func Depth(p string) int {
	return strings.Count(p, "/")
}

// IsSystemArtifact matches OS metadata that sneaks into archives: macOS
// resource forks, Finder/Explorer droppings. These are never creative assets.
func IsSystemArtifact(p string) bool {
	if strings.HasPrefix(p, "__MACOSX/") || strings.Contains(p, "/__MACOSX/") {
		return true
	}
	base := strings.ToLower(path.Base(p))
	return base == "thumbs.db" || base == ".ds_store" || base == "desktop.ini" ||
		strings.HasPrefix(base, "._")
}
