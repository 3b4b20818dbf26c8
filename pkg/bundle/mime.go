package bundle

import (
	"path"
	"strings"
)

var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".mjs":   "text/javascript; charset=utf-8",
	".json":  "application/json",
	".xml":   "application/xml",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".ogv":   "video/ogg",
	".mp3":   "audio/mpeg",
	".ogg":   "audio/ogg",
	".wav":   "audio/wav",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".eot":   "application/vnd.ms-fontobject",
	".txt":   "text/plain; charset=utf-8",
}

// ContentType guesses a MIME type from the file extension. The preview server
// uses this when serving virtual-origin assets; sniffing actual bytes would
// break creatives that rely on exact Content-Type matching for module scripts.
func ContentType(p string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(p))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Ext returns the lowercased extension including the dot, "" if none.
func Ext(p string) string {
	return strings.ToLower(path.Ext(p))
}

// IsHTML reports whether a path looks like an HTML document.
func IsHTML(p string) bool {
	e := Ext(p)
	return e == ".html" || e == ".htm"
}

// IsCSS reports whether a path looks like a stylesheet.
func IsCSS(p string) bool {
	return Ext(p) == ".css"
}
