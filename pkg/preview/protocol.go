package preview

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Message kinds exchanged between the host and the sandboxed creative. The
// field names match what the injected shim emits; receivers drop anything
// that fails shape validation instead of erroring.
const (
	MsgBundleEntries = "BUNDLE_ENTRIES"
	MsgEntriesStored = "ENTRIES_STORED"
	MsgEntriesAck    = "ENTRIES_ACK"
	MsgCreativeClick = "CREATIVE_CLICK"
	MsgEnablerStatus = "ENABLER_STATUS"
	MsgFetchMiss     = "FETCH_MISS"
	MsgDiagnostics   = "DIAGNOSTICS"
)

// Entry is one asset offered to the sandbox in a BUNDLE_ENTRIES message.
type Entry struct {
	Path        string `json:"path"`
	Buffer      []byte `json:"buffer,omitempty"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"contentType"`
}

// BundleEntries is the host→sandbox asset manifest.
type BundleEntries struct {
	Type      string  `json:"type"`
	BundleID  string  `json:"bundleId"`
	BaseDir   string  `json:"baseDir"`
	IndexPath string  `json:"indexPath"`
	Entries   []Entry `json:"entries"`
}

// ClickMeta describes how a click/exit surfaced inside the sandbox.
type ClickMeta struct {
	Source  string `json:"source"` // dom | shim | clickTag | window.open
	Present bool   `json:"present"`
}

// ClickEvent is one CREATIVE_CLICK report.
type ClickEvent struct {
	URL  string    `json:"url"`
	Meta ClickMeta `json:"meta"`
}

// InboundMessage is a validated sandbox→host message.
type InboundMessage struct {
	Type     string
	BundleID string
	Click    *ClickEvent
	// EnablerSource is set for ENABLER_STATUS: "native" or "shim".
	EnablerSource string
	// MissURL is set for FETCH_MISS.
	MissURL string
	// Diagnostics carries the raw DIAGNOSTICS payload.
	Diagnostics json.RawMessage
}

var clickSources = map[string]bool{"dom": true, "shim": true, "clickTag": true, "window.open": true}

// parseInbound validates a raw sandbox message. ok is false for malformed or
// foreign payloads; those are silently dropped by the caller.
func parseInbound(raw []byte) (InboundMessage, bool) {
	if !gjson.ValidBytes(raw) {
		return InboundMessage{}, false
	}
	body := gjson.ParseBytes(raw)
	msg := InboundMessage{
		Type:     body.Get("type").String(),
		BundleID: body.Get("bundleId").String(),
	}
	if msg.Type == "" || msg.BundleID == "" {
		return InboundMessage{}, false
	}

	switch msg.Type {
	case MsgCreativeClick:
		source := body.Get("meta.source").String()
		if !clickSources[source] {
			return InboundMessage{}, false
		}
		msg.Click = &ClickEvent{
			URL: body.Get("url").String(),
			Meta: ClickMeta{
				Source:  source,
				Present: body.Get("meta.present").Bool(),
			},
		}
	case MsgEnablerStatus:
		source := body.Get("source").String()
		if source != "native" && source != "shim" {
			return InboundMessage{}, false
		}
		msg.EnablerSource = source
	case MsgFetchMiss:
		msg.MissURL = body.Get("url").String()
		if msg.MissURL == "" {
			return InboundMessage{}, false
		}
	case MsgDiagnostics:
		diag := body.Get("diagnostics")
		if !diag.Exists() {
			return InboundMessage{}, false
		}
		msg.Diagnostics = json.RawMessage(diag.Raw)
	case MsgEntriesStored, MsgEntriesAck:
		// handshake carries no payload beyond identity
	default:
		return InboundMessage{}, false
	}
	return msg, true
}
