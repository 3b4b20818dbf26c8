package refs

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// attrTargets is the element/attribute set treated as asset references.
var attrTargets = []struct {
	selector string
	attr     string
}{
	{"img[src]", "src"},
	{"script[src]", "src"},
	{"link[href]", "href"},
	{"video[src]", "src"},
	{"audio[src]", "src"},
	{"source[src]", "src"},
}

func parseHTML(data []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(data))
}

// walkHTML extracts references from the markup itself: the attribute set
// above, inline style attributes, and <style> blocks. Stylesheet bodies are
// retained so the ad-size fallback can look for candidate-selector rules.
func (w *walker) walkHTML(doc *goquery.Document, sourceFile string) {
	for _, t := range attrTargets {
		doc.Find(t.selector).Each(func(_ int, s *goquery.Selection) {
			if raw, ok := s.Attr(t.attr); ok {
				w.emit(raw, sourceFile)
			}
		})
	}

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		for _, raw := range scanCSS(style) {
			w.emit(raw, sourceFile)
		}
	})

	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		w.cssTexts = append(w.cssTexts, text)
		for _, raw := range scanCSS(text) {
			w.emit(raw, sourceFile)
		}
	})
}
