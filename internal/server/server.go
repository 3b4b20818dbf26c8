package server

import (
	"embed"
	"io/fs"
	"net/http"
	"sync"

	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/checks"
	"github.com/adlint/adlint/pkg/preview"
	"github.com/adlint/adlint/pkg/report"
	"github.com/adlint/adlint/pkg/storage"
)

//go:embed web
var WebFS embed.FS

// Server is the upload/validate/preview HTTP surface. Bundles live in memory
// for the lifetime of the process; results may additionally be persisted to
// the history database when one is attached.
type Server struct {
	Manager  *preview.Manager
	DB       *storage.DB
	Settings checks.Settings
	Username string
	Password string

	mu      sync.Mutex
	bundles map[string]*bundle.Bundle
	results map[string]report.BundleResult
}

func New(db *storage.DB, settings checks.Settings, user, pass string) *Server {
	return &Server{
		Manager:  preview.NewManager("/preview"),
		DB:       db,
		Settings: settings,
		Username: user,
		Password: pass,
		bundles:  make(map[string]*bundle.Bundle),
		results:  make(map[string]report.BundleResult),
	}
}

// Preload registers an already-analyzed bundle, used by the preview command
// to serve a single bundle without going through the upload API.
func (s *Server) Preload(b *bundle.Bundle, result report.BundleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[b.ID] = b
	s.results[b.ID] = result
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("POST /api/bundles", s.basicAuth(s.handleUpload))
	mux.HandleFunc("GET /api/bundles", s.basicAuth(s.handleListBundles))
	mux.HandleFunc("GET /api/bundles/{id}/result", s.basicAuth(s.handleResult))
	mux.HandleFunc("POST /api/bundles/{id}/preview", s.basicAuth(s.handleOpenPreview))
	mux.HandleFunc("GET /api/preview/{sid}/diagnostics", s.basicAuth(s.handleDiagnostics))
	mux.HandleFunc("DELETE /api/preview/{sid}", s.basicAuth(s.handleClosePreview))
	mux.HandleFunc("GET /api/runs", s.basicAuth(s.handleRuns))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))

	// Virtual origin for sandboxed creatives. No auth beyond the session id:
	// the sandboxed iframe cannot carry credentials.
	mux.HandleFunc("GET /preview/{sid}/", s.handleEntry)
	mux.HandleFunc("GET /preview/{sid}/assets/", s.handleAsset)
	mux.HandleFunc("POST /preview/{sid}/events", s.handleEvents)

	// Static Files
	webRoot, err := fs.Sub(WebFS, "web")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(webRoot))
	mux.Handle("/", s.basicAuthMiddlewareForStatic(fileServer))

	utils.Log.Infof("Starting preview server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) basicAuthMiddlewareForStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
