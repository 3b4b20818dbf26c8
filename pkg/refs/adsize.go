package refs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/adlint/adlint/pkg/bundle"
)

var (
	sizeContentRe = regexp.MustCompile(`(?i)width\s*=\s*(\d{1,4})\s*[,;]\s*height\s*=\s*(\d{1,4})`)
	wxhRe         = regexp.MustCompile(`^(\d{1,4})x(\d{1,4})$`)
	cssPxRe       = regexp.MustCompile(`(?i)(width|height)\s*:\s*(\d{1,4})(?:\.\d+)?px`)
)

// candidateSelectors is the fixed fallback list probed when no meta tag or
// path segment declares the size. Order matters: first selector with both
// dimensions wins.
var candidateSelectors = []string{"#container", "#animate-section", "#bg", "body", "html"}

// detectAdSize runs the size-detection priority chain over the primary
// document. doc may be nil when the markup failed to parse; the path-segment
// rule still applies in that case.
func detectAdSize(primary string, doc *goquery.Document, cssTexts []string) (*AdSize, SizeSource) {
	if doc != nil {
		// Rule 1: <meta name="ad.size" content="width=W, height=H">.
		if size := metaAdSize(doc); size != nil {
			return size, SourceMetaAdSize
		}
		// Rule 2: a meta tag whose name itself is a WxH pattern.
		if size := metaNameSize(doc); size != nil {
			return size, SourceMetaName
		}
		// Rule 3: any meta content carrying width=/height= pairs.
		if size := metaContentSize(doc); size != nil {
			return size, SourceMetaContent
		}
	}
	// Rule 4: a WxH segment in the document's base path.
	if size := pathSegmentSize(primary); size != nil {
		return size, SourcePathSegment
	}
	// Rule 5: candidate-selector dimensions from inline styles or stylesheet
	// rules. Without a layout engine this reads declared widths, which is why
	// the primaryAsset check treats this source as low confidence.
	if doc != nil {
		if size := selectorSize(doc, cssTexts); size != nil {
			return size, SourceCandidateSelector
		}
	}
	return nil, ""
}

func metaAdSize(doc *goquery.Document) *AdSize {
	var size *AdSize
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "ad.size") {
			return true
		}
		content, _ := s.Attr("content")
		size = parseSizeContent(content)
		return size == nil
	})
	return size
}

func metaNameSize(doc *goquery.Document) *AdSize {
	var size *AdSize
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if m := wxhRe.FindStringSubmatch(strings.TrimSpace(name)); m != nil {
			size = &AdSize{Width: atoi(m[1]), Height: atoi(m[2])}
			return false
		}
		return true
	})
	return size
}

func metaContentSize(doc *goquery.Document) *AdSize {
	var size *AdSize
	doc.Find("meta[content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content, _ := s.Attr("content")
		size = parseSizeContent(content)
		return size == nil
	})
	return size
}

func pathSegmentSize(primary string) *AdSize {
	for _, seg := range strings.Split(bundle.Dir(primary), "/") {
		if m := wxhRe.FindStringSubmatch(seg); m != nil {
			return &AdSize{Width: atoi(m[1]), Height: atoi(m[2])}
		}
	}
	return nil
}

func selectorSize(doc *goquery.Document, cssTexts []string) *AdSize {
	for _, sel := range candidateSelectors {
		node := doc.Find(sel).First()
		if node.Length() > 0 {
			if style, ok := node.Attr("style"); ok {
				if size := parseDeclaredBox(style); size != nil {
					return size
				}
			}
		}
		// Fall back to stylesheet rules targeting the selector.
		for _, css := range cssTexts {
			if decl := ruleBody(css, sel); decl != "" {
				if size := parseDeclaredBox(decl); size != nil {
					return size
				}
			}
		}
	}
	return nil
}

// ruleBody finds the declaration block of the first rule whose selector list
// contains sel verbatim. Good enough for the flat stylesheets ad creatives ship.
func ruleBody(css, sel string) string {
	idx := 0
	for {
		open := strings.Index(css[idx:], "{")
		if open < 0 {
			return ""
		}
		open += idx
		close := strings.Index(css[open:], "}")
		if close < 0 {
			return ""
		}
		close += open
		selectors := css[idx:open]
		for _, s := range strings.Split(selectors, ",") {
			if strings.TrimSpace(s) == sel {
				return css[open+1 : close]
			}
		}
		idx = close + 1
	}
}

func parseDeclaredBox(decl string) *AdSize {
	var size AdSize
	for _, m := range cssPxRe.FindAllStringSubmatch(decl, -1) {
		switch strings.ToLower(m[1]) {
		case "width":
			if size.Width == 0 {
				size.Width = atoi(m[2])
			}
		case "height":
			if size.Height == 0 {
				size.Height = atoi(m[2])
			}
		}
	}
	if size.Width > 0 && size.Height > 0 {
		return &size
	}
	return nil
}

func parseSizeContent(content string) *AdSize {
	if m := sizeContentRe.FindStringSubmatch(content); m != nil {
		return &AdSize{Width: atoi(m[1]), Height: atoi(m[2])}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
