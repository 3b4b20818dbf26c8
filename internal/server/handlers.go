package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/report"
	"github.com/adlint/adlint/pkg/storage"
)

// uploadOutcome is the per-file result of a multi-upload batch. A file that
// fails to extract reports its error without sinking the rest of the batch.
type uploadOutcome struct {
	Name     string               `json:"name"`
	Error    string               `json:"error,omitempty"`
	BundleID string               `json:"bundleId,omitempty"`
	Result   *report.BundleResult `json:"result,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var outcomes []uploadOutcome
	for _, fh := range r.MultipartForm.File["file"] {
		outcome := uploadOutcome{Name: fh.Filename}
		f, err := fh.Open()
		if err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}
		raw, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		b, err := bundle.FromZip(fh.Filename, raw)
		if err != nil {
			outcome.Error = err.Error()
			outcomes = append(outcomes, outcome)
			continue
		}

		result := report.Analyze(b, s.Settings)
		s.mu.Lock()
		s.bundles[b.ID] = b
		s.results[b.ID] = result
		s.mu.Unlock()

		if s.DB != nil {
			if _, err := s.DB.SaveResult(r.Context(), result); err != nil {
				utils.Log.Warnf("persisting run for %s: %v", b.Name, err)
			}
		}

		outcome.BundleID = b.ID
		outcome.Result = &result
		outcomes = append(outcomes, outcome)
	}

	if len(outcomes) == 0 {
		http.Error(w, "no files uploaded", http.StatusBadRequest)
		return
	}
	writeJSON(w, outcomes)
}

func (s *Server) handleListBundles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	results := make([]report.BundleResult, 0, len(s.results))
	for _, res := range s.results {
		results = append(results, res)
	}
	s.mu.Unlock()
	writeJSON(w, results)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result, ok := s.results[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown bundle", http.StatusNotFound)
		return
	}
	writeJSON(w, result)
}

type openPreviewResponse struct {
	SessionID string `json:"sessionId"`
	EntryURL  string `json:"entryUrl"`
	State     string `json:"state"`
}

func (s *Server) handleOpenPreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	b, haveBundle := s.bundles[id]
	result, haveResult := s.results[id]
	s.mu.Unlock()
	if !haveBundle || !haveResult {
		http.Error(w, "unknown bundle", http.StatusNotFound)
		return
	}
	if result.Primary == "" {
		http.Error(w, "bundle has no primary HTML asset; preview unavailable", http.StatusConflict)
		return
	}

	session, err := s.Manager.Open(b, result.Primary)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, openPreviewResponse{
		SessionID: session.ID,
		EntryURL:  "/preview/" + session.ID + "/",
		State:     string(session.State()),
	})
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := s.Manager.Get(r.PathValue("sid"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	doc, err := session.EntryDocument()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// The sandbox constraints the host page sets on its iframe are the real
	// boundary; this keeps direct visits from escalating.
	w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
	w.Write(doc)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.Manager.Get(r.PathValue("sid"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	prefix := "/preview/" + session.ID + "/assets/"
	assetPath := strings.TrimPrefix(r.URL.Path, prefix)
	data, contentType, ok := session.AssetContent(assetPath)
	if !ok {
		http.Error(w, "asset not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	session, ok := s.Manager.Get(r.PathValue("sid"))
	if !ok {
		// Stale sandboxes from a superseded session keep posting; swallow.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !session.HandleMessage(raw) {
		utils.Log.Debugf("dropped malformed or foreign message for session %s", session.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	session, ok := s.Manager.Get(r.PathValue("sid"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	writeJSON(w, session.Diagnostics())
}

func (s *Server) handleClosePreview(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Close(r.PathValue("sid")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history database not attached", http.StatusNotImplemented)
		return
	}
	q := r.URL.Query()
	runs, err := s.DB.ListRuns(r.Context(), storage.ListOptions{
		BundleFilter: q.Get("search"),
		Severity:     q.Get("severity"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history database not attached", http.StatusNotImplemented)
		return
	}
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
