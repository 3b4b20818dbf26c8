package vast

import (
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Firer requests one tracker URL. Implementations must never block the caller
// on network outcome; tracking pixels are fire-and-forget by definition.
type Firer interface {
	Fire(url string)
}

// PixelFirer issues real GET requests in the background, dropping every
// outcome on the floor exactly like a browser image pixel does.
type PixelFirer struct {
	Client *http.Client
}

func (f *PixelFirer) Fire(url string) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	go func() {
		resp, err := client.Get(url)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()
}

// Recorder collects fired URLs instead of requesting them.
type Recorder struct {
	mu    sync.Mutex
	Fired []string
}

func (r *Recorder) Fire(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fired = append(r.Fired, url)
}

// onceEvents fire at most one time per playback session regardless of how
// often the underlying media event repeats.
var onceEvents = map[string]bool{
	EventImpression:    true,
	"creativeView":     true,
	EventStart:         true,
	EventFirstQuartile: true,
	EventMidpoint:      true,
	EventThirdQuartile: true,
	EventComplete:      true,
}

// quartileThresholds orders the progress events by playback fraction.
var quartileThresholds = []struct {
	event    string
	fraction float64
}{
	{EventStart, 0},
	{EventFirstQuartile, 0.25},
	{EventMidpoint, 0.5},
	{EventThirdQuartile, 0.75},
}

// GroupStatus is the fired/total tally for one tracker group.
type GroupStatus struct {
	Event string `json:"event"`
	Total int    `json:"total"`
	Fired int    `json:"fired"`
}

// Simulator drives a VAST document through a playback timeline, firing
// trackers as their events occur. Not safe for concurrent use; drive it from
// one goroutine the way a media element delivers events.
type Simulator struct {
	doc   *Document
	firer Firer

	fired  map[string]bool // once-only events already dispatched
	counts map[string]int  // per-event fire count
}

func NewSimulator(doc *Document, firer Firer) *Simulator {
	return &Simulator{
		doc:    doc,
		firer:  firer,
		fired:  make(map[string]bool),
		counts: make(map[string]int),
	}
}

// Start fires the impression group and the playback-start trackers. Safe to
// call on every `play`/`playing` event; only the first call does anything.
func (s *Simulator) Start() {
	s.Emit(EventImpression)
	s.Emit("creativeView")
	s.Emit(EventStart)
}

// ProgressTo fires every quartile tracker whose threshold currentTime has
// crossed, each at most once. Call it from `timeupdate`; repeated calls past
// a threshold never re-fire.
func (s *Simulator) ProgressTo(currentTime time.Duration) {
	if s.doc.Duration <= 0 {
		return
	}
	frac := float64(currentTime) / float64(s.doc.Duration)
	for _, q := range quartileThresholds {
		if frac > q.fraction {
			s.Emit(q.event)
		}
	}
}

// Complete fires the end-of-playback trackers.
func (s *Simulator) Complete() {
	s.Emit(EventComplete)
}

// Click fires click tracking and returns the click-through destination.
func (s *Simulator) Click() string {
	s.Emit(EventClickTracking)
	return s.doc.ClickThrough
}

// Emit dispatches one named tracker group. Once-only events are deduplicated;
// everything else (pause, mute, custom events) fires every time.
func (s *Simulator) Emit(event string) {
	if onceEvents[event] && s.fired[event] {
		return
	}
	urls := s.doc.Trackers[event]
	if len(urls) == 0 {
		if onceEvents[event] {
			s.fired[event] = true
		}
		return
	}
	s.fired[event] = s.fired[event] || onceEvents[event]
	for _, u := range urls {
		s.firer.Fire(cacheBust(u))
	}
	s.counts[event] += len(urls)
}

// Status reports fired/total per tracker group, sorted by event name.
func (s *Simulator) Status() []GroupStatus {
	events := make([]string, 0, len(s.doc.Trackers))
	for event := range s.doc.Trackers {
		events = append(events, event)
	}
	sort.Strings(events)

	out := make([]GroupStatus, 0, len(events))
	for _, event := range events {
		out = append(out, GroupStatus{
			Event: event,
			Total: len(s.doc.Trackers[event]),
			Fired: s.counts[event],
		})
	}
	return out
}

// cacheBust substitutes the usual cache-busting macros, or appends a cb query
// parameter when the URL carries none.
func cacheBust(u string) string {
	nonce := fmt.Sprintf("%d", rand.Int63())
	for _, macro := range []string{"[timestamp]", "[TIMESTAMP]", "[CACHEBUSTING]", "%%CACHEBUSTER%%"} {
		if strings.Contains(u, macro) {
			return strings.ReplaceAll(u, macro, nonce)
		}
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "cb=" + nonce
}
