// Package preview hosts creative bundles in a sandboxed execution context:
// asset references are rewritten to a virtual origin served by the preview
// server, an ad-SDK shim (Enabler/clickTag) is injected, and the creative's
// click/tracking activity flows back over a validated message protocol.
package preview

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adlint/adlint/pkg/bundle"
)

// State is the lifecycle position of one preview session.
type State string

const (
	StateUninitialized    State = "UNINITIALIZED"
	StateAssetsPrimed     State = "ASSETS_PRIMED"
	StateWorkerReady      State = "WORKER_READY"
	StateCreativeInjected State = "CREATIVE_INJECTED"
	StateRunning          State = "RUNNING"
	StateLoadError        State = "LOAD_ERROR"
)

//go:embed shim.js
var shimJS string

// Diagnostics is the telemetry snapshot exposed per session.
type Diagnostics struct {
	State           State             `json:"state"`
	EnablerSource   string            `json:"enablerSource,omitempty"`
	Clicks          []ClickEvent      `json:"clicks"`
	NetworkFailures []string          `json:"networkFailures"`
	Reports         []json.RawMessage `json:"reports,omitempty"`
	LoadError       string            `json:"loadError,omitempty"`
}

// Session owns one sandboxed preview of one bundle. All mutable state is
// behind the mutex; the underlying bundle is shared read-only.
type Session struct {
	ID        string
	BundleID  string
	Primary   string
	CreatedAt time.Time

	bundle    *bundle.Bundle
	mountPath string // URL prefix the server serves this session under

	mu              sync.Mutex
	state           State
	live            bool
	assetURLs       map[string]string
	enablerSource   string
	clicks          []ClickEvent
	networkFailures map[string]bool
	reports         []json.RawMessage
	loadError       string
}

// NewSession primes every bundle asset under the session's virtual origin.
// With the server-backed strategy there is no worker handshake to wait for,
// so the session lands in WORKER_READY immediately.
func NewSession(b *bundle.Bundle, primary, mountPath string) (*Session, error) {
	if primary == "" {
		return nil, fmt.Errorf("preview requires a primary HTML asset")
	}
	canonical, _, ok := b.Lookup(primary)
	if !ok {
		return nil, fmt.Errorf("primary %s not found in bundle %s", primary, b.Name)
	}

	s := &Session{
		ID:              uuid.NewString(),
		BundleID:        b.ID,
		Primary:         canonical,
		CreatedAt:       time.Now().UTC(),
		bundle:          b,
		mountPath:       strings.TrimSuffix(mountPath, "/"),
		state:           StateUninitialized,
		live:            true,
		networkFailures: make(map[string]bool),
	}

	s.assetURLs = make(map[string]string, len(b.Files))
	for _, p := range b.Paths() {
		s.assetURLs[p] = s.mountPath + "/" + s.ID + "/assets/" + p
	}
	// Priming is synchronous here and the server-backed origin needs no
	// worker handshake, so the session skips straight to WORKER_READY. An
	// ENTRIES_ACK from a worker-backed sandbox is still accepted as a no-op.
	s.state = StateWorkerReady
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Live reports whether the session still accepts messages. Superseded or
// closed sessions stay addressable but inert, so stale async callbacks can
// check before applying results.
func (s *Session) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// EntryDocument renders the rewritten primary document with the shim
// injected. Failure to produce an entry document is an infrastructure-level
// error and drives the session to LOAD_ERROR.
func (s *Session) EntryDocument() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoadError {
		return nil, fmt.Errorf("session %s: %s", s.ID, s.loadError)
	}

	_, data, ok := s.bundle.Lookup(s.Primary)
	if !ok {
		s.failLocked("entry document missing from primed assets")
		return nil, fmt.Errorf("session %s: %s", s.ID, s.loadError)
	}

	r := &resolver{bundle: s.bundle, baseDir: bundle.Dir(s.Primary), urls: s.assetURLs}
	out, err := rewriteHTML(r, s.Primary, data, s.shim())
	if err != nil {
		s.failLocked(err.Error())
		return nil, fmt.Errorf("session %s: %s", s.ID, s.loadError)
	}
	// Unresolvable references are diagnostics, never a hard error.
	for _, miss := range r.misses {
		s.networkFailures[miss] = true
	}
	s.state = StateCreativeInjected
	return out, nil
}

// AssetContent serves one primed asset. Stylesheets are rewritten on the way
// out so their url() references stay inside the virtual origin.
func (s *Session) AssetContent(p string) ([]byte, string, bool) {
	canonical, data, ok := s.bundle.Lookup(p)
	if !ok {
		s.RecordMiss(p)
		return nil, "", false
	}
	if bundle.IsCSS(canonical) {
		s.mu.Lock()
		r := &resolver{bundle: s.bundle, baseDir: bundle.Dir(s.Primary), urls: s.assetURLs}
		rewritten := rewriteCSSText(r, string(data), bundle.Dir(canonical))
		for _, miss := range r.misses {
			s.networkFailures[miss] = true
		}
		s.mu.Unlock()
		return []byte(rewritten), bundle.ContentType(canonical), true
	}
	return data, bundle.ContentType(canonical), true
}

// RecordMiss notes an asset-resolution failure without disturbing the state
// machine.
func (s *Session) RecordMiss(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networkFailures[target] = true
}

// HandleMessage ingests one raw sandbox→host message. Malformed messages and
// messages for another bundle are dropped, returning false.
func (s *Session) HandleMessage(raw []byte) bool {
	msg, ok := parseInbound(raw)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live || msg.BundleID != s.BundleID {
		return false
	}

	switch msg.Type {
	case MsgEntriesStored, MsgEntriesAck:
		if s.state == StateAssetsPrimed {
			s.state = StateWorkerReady
		}
	case MsgEnablerStatus:
		s.enablerSource = msg.EnablerSource
		if s.state == StateCreativeInjected {
			s.state = StateRunning
		}
	case MsgCreativeClick:
		s.clicks = append(s.clicks, *msg.Click)
	case MsgFetchMiss:
		s.networkFailures[msg.MissURL] = true
	case MsgDiagnostics:
		s.reports = append(s.reports, msg.Diagnostics)
	}
	return true
}

// Clicks returns the click reports received so far.
func (s *Session) Clicks() []ClickEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ClickEvent, len(s.clicks))
	copy(out, s.clicks)
	return out
}

// Diagnostics snapshots the session telemetry.
func (s *Session) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Diagnostics{
		State:         s.state,
		EnablerSource: s.enablerSource,
		Clicks:        append([]ClickEvent(nil), s.clicks...),
		Reports:       append([]json.RawMessage(nil), s.reports...),
		LoadError:     s.loadError,
	}
	d.NetworkFailures = make([]string, 0, len(s.networkFailures))
	for miss := range s.networkFailures {
		d.NetworkFailures = append(d.NetworkFailures, miss)
	}
	sort.Strings(d.NetworkFailures)
	return d
}

// Manifest builds the BUNDLE_ENTRIES view of the primed assets, URLs in
// place of inline buffers since the virtual origin serves the bytes.
func (s *Session) Manifest() BundleEntries {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := BundleEntries{
		Type:      MsgBundleEntries,
		BundleID:  s.BundleID,
		BaseDir:   bundle.Dir(s.Primary),
		IndexPath: s.Primary,
	}
	for _, p := range s.bundle.Paths() {
		m.Entries = append(m.Entries, Entry{
			Path:        p,
			URL:         s.assetURLs[p],
			ContentType: bundle.ContentType(p),
		})
	}
	return m
}

// Close tears the session down. Terminal; a closed session drops all
// subsequent messages.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = false
	s.assetURLs = nil
}

func (s *Session) failLocked(reason string) {
	s.state = StateLoadError
	s.loadError = reason
}

// shim renders the SDK shim with this session's identity baked in.
func (s *Session) shim() string {
	eventURL := s.mountPath + "/" + s.ID + "/events"
	out := strings.ReplaceAll(shimJS, "__BUNDLE_ID__", s.BundleID)
	out = strings.ReplaceAll(out, "__SESSION_ID__", s.ID)
	return strings.ReplaceAll(out, "__EVENT_URL__", eventURL)
}
