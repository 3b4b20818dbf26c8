// Package vast parses VAST video-ad documents, inventories their trackers and
// simulates playback to verify tracker firing.
package vast

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Raw XML shapes, VAST 2.x through 4.x. CDATA payloads arrive as chardata.

type vastXML struct {
	XMLName xml.Name `xml:"VAST"`
	Version string   `xml:"version,attr"`
	Ads     []adXML  `xml:"Ad"`
}

type adXML struct {
	ID      string      `xml:"id,attr"`
	InLine  *inlineXML  `xml:"InLine"`
	Wrapper *wrapperXML `xml:"Wrapper"`
}

type inlineXML struct {
	AdSystem    string        `xml:"AdSystem"`
	AdTitle     string        `xml:"AdTitle"`
	Impressions []string      `xml:"Impression"`
	Errors      []string      `xml:"Error"`
	Creatives   []creativeXML `xml:"Creatives>Creative"`
}

type wrapperXML struct {
	AdTagURI    string        `xml:"VASTAdTagURI"`
	Impressions []string      `xml:"Impression"`
	Errors      []string      `xml:"Error"`
	Creatives   []creativeXML `xml:"Creatives>Creative"`
}

type creativeXML struct {
	Linear *linearXML `xml:"Linear"`
}

type linearXML struct {
	Duration       string        `xml:"Duration"`
	Trackings      []trackingXML `xml:"TrackingEvents>Tracking"`
	ClickThrough   string        `xml:"VideoClicks>ClickThrough"`
	ClickTrackings []string      `xml:"VideoClicks>ClickTracking"`
	MediaFiles     []mediaXML    `xml:"MediaFiles>MediaFile"`
}

type trackingXML struct {
	Event string `xml:"event,attr"`
	URL   string `xml:",chardata"`
}

type mediaXML struct {
	Type   string `xml:"type,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	URL    string `xml:",chardata"`
}

// MediaFile is one playable rendition offered by the tag.
type MediaFile struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Document is the merged, wrapper-flattened view of one VAST response.
type Document struct {
	Version      string              `json:"version"`
	AdSystem     string              `json:"adSystem,omitempty"`
	AdTitle      string              `json:"adTitle,omitempty"`
	Duration     time.Duration       `json:"duration"`
	ClickThrough string              `json:"clickThrough,omitempty"`
	MediaFiles   []MediaFile         `json:"mediaFiles"`
	Trackers     map[string][]string `json:"trackers"`
}

// Well-known tracker group names used alongside the raw event names.
const (
	EventImpression    = "impression"
	EventError         = "error"
	EventClickTracking = "clickTracking"
	EventStart         = "start"
	EventFirstQuartile = "firstQuartile"
	EventMidpoint      = "midpoint"
	EventThirdQuartile = "thirdQuartile"
	EventComplete      = "complete"
)

// Parse decodes one VAST document. Wrapper ads parse fine but carry no media;
// use Fetch to chase the wrapper chain.
func Parse(data []byte) (*Document, error) {
	var raw vastXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing VAST: %w", err)
	}
	if len(raw.Ads) == 0 {
		return nil, fmt.Errorf("VAST document contains no ads")
	}

	doc := &Document{
		Version:  raw.Version,
		Trackers: make(map[string][]string),
	}
	mergeAd(doc, raw.Ads[0])
	return doc, nil
}

// wrapperURI returns the next tag in a wrapper chain, "" for inline ads.
func wrapperURI(data []byte) string {
	var raw vastXML
	if err := xml.Unmarshal(data, &raw); err != nil || len(raw.Ads) == 0 {
		return ""
	}
	if w := raw.Ads[0].Wrapper; w != nil {
		return strings.TrimSpace(w.AdTagURI)
	}
	return ""
}

func mergeAd(doc *Document, ad adXML) {
	var (
		impressions []string
		errs        []string
		creatives   []creativeXML
	)
	switch {
	case ad.InLine != nil:
		impressions = ad.InLine.Impressions
		errs = ad.InLine.Errors
		creatives = ad.InLine.Creatives
		doc.AdSystem = strings.TrimSpace(ad.InLine.AdSystem)
		doc.AdTitle = strings.TrimSpace(ad.InLine.AdTitle)
	case ad.Wrapper != nil:
		impressions = ad.Wrapper.Impressions
		errs = ad.Wrapper.Errors
		creatives = ad.Wrapper.Creatives
	default:
		return
	}

	for _, u := range impressions {
		addTracker(doc, EventImpression, u)
	}
	for _, u := range errs {
		addTracker(doc, EventError, u)
	}
	for _, c := range creatives {
		if c.Linear == nil {
			continue
		}
		if d, err := parseDuration(c.Linear.Duration); err == nil && doc.Duration == 0 {
			doc.Duration = d
		}
		if ct := strings.TrimSpace(c.Linear.ClickThrough); ct != "" && doc.ClickThrough == "" {
			doc.ClickThrough = ct
		}
		for _, u := range c.Linear.ClickTrackings {
			addTracker(doc, EventClickTracking, u)
		}
		for _, t := range c.Linear.Trackings {
			event := strings.TrimSpace(t.Event)
			if event == "" {
				continue
			}
			addTracker(doc, event, t.URL)
		}
		for _, m := range c.Linear.MediaFiles {
			if u := strings.TrimSpace(m.URL); u != "" {
				doc.MediaFiles = append(doc.MediaFiles, MediaFile{
					Type: m.Type, Width: m.Width, Height: m.Height, URL: u,
				})
			}
		}
	}
}

func addTracker(doc *Document, event, rawURL string) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return
	}
	doc.Trackers[event] = append(doc.Trackers[event], u)
}

// parseDuration handles the VAST HH:MM:SS(.mmm) clock format.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)), nil
}

const maxWrapperDepth = 5

// Fetch retrieves a VAST tag and follows its wrapper chain, merging trackers
// from every hop into the final inline document.
func Fetch(ctx context.Context, tagURL string) (*Document, error) {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	merged := &Document{Trackers: make(map[string][]string)}
	next := tagURL
	for depth := 0; ; depth++ {
		if depth > maxWrapperDepth {
			return nil, fmt.Errorf("wrapper chain exceeds %d hops", maxWrapperDepth)
		}
		data, err := fetchOne(ctx, client, next)
		if err != nil {
			return nil, err
		}
		var raw vastXML
		if err := xml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing VAST from %s: %w", next, err)
		}
		if len(raw.Ads) == 0 {
			return nil, fmt.Errorf("empty VAST response from %s", next)
		}
		if merged.Version == "" {
			merged.Version = raw.Version
		}
		mergeAd(merged, raw.Ads[0])
		uri := wrapperURI(data)
		if uri == "" {
			return merged, nil
		}
		next = uri
	}
}

func fetchOne(ctx context.Context, client *retryablehttp.Client, tagURL string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, tagURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", tagURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", tagURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
