// Package web serves the widget as a local web page.
//
// The page's assets are embedded. The access token stays in the server process: the page talks to the
// JSON endpoints below, which call the player through a [tasks.Controller].
//
// Routes
//
//	GET  /                      → widget page (also handles ?code= when the redirect URI is the root)
//	GET  /{asset}               → widget.js, widget.css, manifest.json, service-worker.js
//	GET  /login                 → start the PKCE login (302 to the provider)
//	GET  <redirect path>        → finish the login, then 303 to /
//	GET  /api/status            → {"authenticated": bool}
//	GET  /api/player            → current playback
//	POST /api/player/{action}   → play, pause, toggle, next, previous, repeat, shuffle
//	GET  /api/search?q=&limit=  → track search
//
// API routes answer 401 until a login completes.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotwidget/internal/formatter"
	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/server"
	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/desertthunder/spotwidget/internal/tasks"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed static
var staticFiles embed.FS

const indexFile = "widget.html"

// startedAt is the Last-Modified time reported for embedded assets.
var startedAt = time.Now()

// Authenticator is the part of services.Authenticator the web widget drives.
type Authenticator interface {
	BeginLogin(ctx context.Context, nav services.Navigator) error
	HandleRedirect(ctx context.Context, u *url.URL) (bool, error)
	Authenticated() bool
}

// Opts configures [New].
type Opts struct {
	Auth    Authenticator
	Service services.Service
	// RedirectPath is the path of the configured redirect URI. Defaults to /callback.
	RedirectPath string
	Logger       *log.Logger
}

// Server is the web widget.
type Server struct {
	auth         Authenticator
	svc          services.Service
	ctl          *tasks.Controller
	redirectPath string
	assets       fs.FS
	logger       *log.Logger
	handler      http.Handler
}

// New builds the widget server and its routes.
//
// A redirect path that would shadow one of the widget's own routes is rejected with [shared.ErrInvalidConfig].
func New(opts Opts) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	redirectPath := opts.RedirectPath
	if redirectPath == "" {
		redirectPath = "/callback"
	}

	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}
	if err := checkRedirectPath(redirectPath, assets); err != nil {
		return nil, err
	}

	s := &Server{
		auth:         opts.Auth,
		svc:          opts.Service,
		ctl:          tasks.NewController(opts.Service),
		redirectPath: redirectPath,
		assets:       assets,
		logger:       logger,
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.RequestLogger(logger), server.Recoverer(logger))

	router.HandleFunc(http.MethodGet, "/{$}", s.index)
	router.HandleFunc(http.MethodGet, "/{asset}", s.asset)
	router.HandleFunc(http.MethodGet, "/login", s.login)
	if redirectPath != "/" {
		router.HandleFunc(http.MethodGet, redirectPath, s.callback)
	}
	router.HandleFunc(http.MethodGet, "/api/status", s.status)
	router.HandleFunc(http.MethodGet, "/api/player", s.requireAuth(s.player))
	router.HandleFunc(http.MethodPost, "/api/player/{action}", s.requireAuth(s.command))
	router.HandleFunc(http.MethodGet, "/api/search", s.requireAuth(s.search))

	s.handler = otelhttp.NewHandler(router, "spotwidget")
	return s, nil
}

// checkRedirectPath rejects paths that collide with /login, the /api tree or an embedded asset.
func checkRedirectPath(p string, assets fs.FS) error {
	if !strings.HasPrefix(p, "/") || strings.ContainsAny(p, "{}") {
		return fmt.Errorf("%w: redirect path %q must be a plain absolute path", shared.ErrInvalidConfig, p)
	}
	if p == "/" {
		return nil
	}

	name := strings.TrimPrefix(p, "/")
	conflict := p == "/login" || p == "/api" || strings.HasPrefix(p, "/api/")
	if _, err := fs.Stat(assets, name); err == nil && !strings.Contains(name, "/") {
		conflict = true
	}
	if conflict {
		return fmt.Errorf("%w: redirect path %s collides with a widget route", shared.ErrInvalidConfig, p)
	}
	return nil
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv, bound, err := server.Listen(addr, s.handler, s.logger)
	if err != nil {
		return err
	}
	s.logger.Info("widget server listening", "url", "http://"+bound.String())

	<-ctx.Done()
	s.logger.Info("shutting down widget server")
	return server.Shutdown(srv)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if s.redirectPath == "/" && (q.Has("code") || q.Has("error")) {
		s.callback(w, r)
		return
	}
	s.serveAsset(w, r, indexFile)
}

func (s *Server) asset(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, r, r.PathValue("asset"))
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, name string) {
	data, err := fs.ReadFile(s.assets, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch name {
	case "service-worker.js":
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Service-Worker-Allowed", "/")
		w.Header().Set("Cache-Control", "no-cache")
	case "manifest.json":
		w.Header().Set("Content-Type", "application/manifest+json")
	}

	http.ServeContent(w, r, name, startedAt, bytes.NewReader(data))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	nav := services.NavigatorFunc(func(ctx context.Context, authURL string) error {
		http.Redirect(w, r, authURL, http.StatusFound)
		return nil
	})

	if err := s.auth.BeginLogin(r.Context(), nav); err != nil {
		s.logger.Error("failed to start login", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	attempted, err := s.auth.HandleRedirect(r.Context(), r.URL)

	clean := services.CleanURL(r.URL)
	clean.Path = "/"
	if err != nil {
		s.logger.Error("login failed", "attempted", attempted, "error", err)
		q := clean.Query()
		q.Set("login", "failed")
		clean.RawQuery = q.Encode()
	}

	http.Redirect(w, r, clean.RequestURI(), http.StatusSeeOther)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": s.auth.Authenticated(),
		"service":       s.svc.Name(),
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Authenticated() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": shared.ErrNotAuthenticated.Error(),
				"login": "/login",
			})
			return
		}
		next(w, r)
	}
}

func (s *Server) player(w http.ResponseWriter, r *http.Request) {
	pb, err := s.ctl.Refresh(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{Playback: newPlaybackView(pb)})
}

func (s *Server) command(w http.ResponseWriter, r *http.Request) {
	action, err := tasks.ParseAction(r.PathValue("action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var arg string
	switch action {
	case tasks.ActionPlay:
		arg = r.URL.Query().Get("uri")
	case tasks.ActionRepeat, tasks.ActionShuffle:
		arg = r.URL.Query().Get("state")
	}

	pb, err := s.ctl.Do(r.Context(), nil, action, arg)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{Playback: newPlaybackView(pb)})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, shared.ErrInvalidArgument)
			return
		}
		limit = n
	}

	tracks, err := s.svc.SearchTracks(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	resp := searchResponse{Tracks: tracks}
	if len(tracks) == 0 {
		resp.Message = formatter.NoResults
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeServiceError maps service errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *services.APIError
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, shared.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized:
		writeError(w, http.StatusUnauthorized, err)
	default:
		s.logger.Warn("player request failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
	}
}
