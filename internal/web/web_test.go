package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/spotwidget/internal/formatter"
	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/shared"
	tu "github.com/desertthunder/spotwidget/internal/testing"
)

const fakeAuthURL = "https://accounts.example.com/authorize?client_id=abc"

type fakeAuth struct {
	mu            sync.Mutex
	authenticated bool
	attempted     bool
	redirectErr   error
	redirects     []*url.URL
}

func (f *fakeAuth) BeginLogin(ctx context.Context, nav services.Navigator) error {
	return nav.Navigate(ctx, fakeAuthURL)
}

func (f *fakeAuth) HandleRedirect(ctx context.Context, u *url.URL) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirects = append(f.redirects, u)
	if f.redirectErr == nil && f.attempted {
		f.authenticated = true
	}
	return f.attempted, f.redirectErr
}

func (f *fakeAuth) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func newTestServer(t *testing.T, auth *fakeAuth, svc *tu.MockService, redirectPath string) http.Handler {
	t.Helper()
	s, err := New(Opts{
		Auth:         auth,
		Service:      svc,
		RedirectPath: redirectPath,
		Logger:       shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return body
}

func samplePlayback() *models.Playback {
	return &models.Playback{
		Track: models.Track{
			ID:          "4uLU6hMCjMI75M1A2tKUQC",
			URI:         "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			Name:        "Never Gonna Give You Up",
			Artists:     []string{"Rick Astley"},
			Album:       "Whenever You Need Somebody",
			AlbumArtURL: "https://i.scdn.co/image/abc",
			DurationMS:  213000,
		},
		ProgressMS:   65000,
		IsPlaying:    true,
		ShuffleState: true,
		RepeatState:  models.RepeatContext,
		Device:       models.Device{Name: "Kitchen"},
	}
}

func TestStaticAssets(t *testing.T) {
	h := newTestServer(t, &fakeAuth{}, &tu.MockService{}, "")

	t.Run("root serves the widget page", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `id="spotify-widget"`) {
			t.Error("expected widget markup in page")
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("expected text/html, got %q", ct)
		}
	})

	t.Run("assets", func(t *testing.T) {
		for _, name := range []string{"widget.js", "widget.css", "manifest.json", "service-worker.js"} {
			rec := do(t, h, http.MethodGet, "/"+name)
			if rec.Code != http.StatusOK {
				t.Errorf("%s: expected 200, got %d", name, rec.Code)
			}
			if rec.Body.Len() == 0 {
				t.Errorf("%s: empty body", name)
			}
		}
	})

	t.Run("service worker headers", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/service-worker.js")
		if got := rec.Header().Get("Service-Worker-Allowed"); got != "/" {
			t.Errorf("expected Service-Worker-Allowed /, got %q", got)
		}
		if !strings.Contains(rec.Body.String(), "widget-cache") {
			t.Error("expected service worker to use widget-cache")
		}
	})

	t.Run("unknown asset", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/missing.txt")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("request id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("redirects to the authorization URL", func(t *testing.T) {
		h := newTestServer(t, &fakeAuth{}, &tu.MockService{}, "")
		rec := do(t, h, http.MethodGet, "/login")
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != fakeAuthURL {
			t.Errorf("expected Location %q, got %q", fakeAuthURL, got)
		}
	})

	t.Run("callback success", func(t *testing.T) {
		auth := &fakeAuth{attempted: true}
		h := newTestServer(t, auth, &tu.MockService{}, "/callback")
		rec := do(t, h, http.MethodGet, "/callback?code=abc123")

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/" {
			t.Errorf("expected clean redirect to /, got %q", got)
		}
		if len(auth.redirects) != 1 || auth.redirects[0].Query().Get("code") != "abc123" {
			t.Errorf("expected code to reach the authenticator, got %v", auth.redirects)
		}
		if !auth.Authenticated() {
			t.Error("expected authenticated after callback")
		}
	})

	t.Run("callback failure", func(t *testing.T) {
		auth := &fakeAuth{attempted: true, redirectErr: shared.ErrAuthFailed}
		h := newTestServer(t, auth, &tu.MockService{}, "/callback")
		rec := do(t, h, http.MethodGet, "/callback?code=abc123")

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/?login=failed" {
			t.Errorf("expected /?login=failed, got %q", got)
		}
	})

	t.Run("redirect URI at root", func(t *testing.T) {
		auth := &fakeAuth{attempted: true}
		h := newTestServer(t, auth, &tu.MockService{}, "/")

		rec := do(t, h, http.MethodGet, "/?code=abc123&state=xyz")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/" {
			t.Errorf("expected clean redirect to /, got %q", got)
		}

		rec = do(t, h, http.MethodGet, "/")
		if rec.Code != http.StatusOK {
			t.Errorf("expected plain root to serve the page, got %d", rec.Code)
		}
		if len(auth.redirects) != 1 {
			t.Errorf("expected one redirect attempt, got %d", len(auth.redirects))
		}
	})
}

func TestStatus(t *testing.T) {
	auth := &fakeAuth{}
	h := newTestServer(t, auth, &tu.MockService{}, "")

	body := decode(t, do(t, h, http.MethodGet, "/api/status"))
	if body["authenticated"] != false {
		t.Errorf("expected authenticated false, got %v", body["authenticated"])
	}

	auth.authenticated = true
	body = decode(t, do(t, h, http.MethodGet, "/api/status"))
	if body["authenticated"] != true {
		t.Errorf("expected authenticated true, got %v", body["authenticated"])
	}
	if body["service"] != "mock" {
		t.Errorf("expected service mock, got %v", body["service"])
	}
}

func TestPlayerAPI(t *testing.T) {
	t.Run("requires login", func(t *testing.T) {
		svc := &tu.MockService{Playback: samplePlayback()}
		h := newTestServer(t, &fakeAuth{}, svc, "")

		for _, tc := range []struct{ method, target string }{
			{http.MethodGet, "/api/player"},
			{http.MethodPost, "/api/player/next"},
			{http.MethodGet, "/api/search?q=rick"},
		} {
			rec := do(t, h, tc.method, tc.target)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s %s: expected 401, got %d", tc.method, tc.target, rec.Code)
			}
			if body := decode(t, rec); body["login"] != "/login" {
				t.Errorf("%s %s: expected login link, got %v", tc.method, tc.target, body)
			}
		}
		if calls := svc.Called(); len(calls) != 0 {
			t.Errorf("expected no service calls, got %v", calls)
		}
	})

	t.Run("current playback", func(t *testing.T) {
		h := newTestServer(t, &fakeAuth{authenticated: true}, &tu.MockService{Playback: samplePlayback()}, "")
		rec := do(t, h, http.MethodGet, "/api/player")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp playerResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		pb := resp.Playback
		if pb == nil {
			t.Fatal("expected playback")
		}
		if pb.Name != "Never Gonna Give You Up" || pb.Artists != "Rick Astley" {
			t.Errorf("unexpected track: %+v", pb)
		}
		if pb.Progress != "1:05" || pb.Duration != "3:33" {
			t.Errorf("expected 1:05 / 3:33, got %s / %s", pb.Progress, pb.Duration)
		}
		if !pb.IsPlaying || !pb.Shuffle || pb.Repeat != models.RepeatContext || pb.Device != "Kitchen" {
			t.Errorf("unexpected player state: %+v", pb)
		}
	})

	t.Run("nothing playing", func(t *testing.T) {
		h := newTestServer(t, &fakeAuth{authenticated: true}, &tu.MockService{}, "")
		rec := do(t, h, http.MethodGet, "/api/player")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"playback":null}` {
			t.Errorf("expected null playback, got %s", got)
		}
	})

	t.Run("commands", func(t *testing.T) {
		tests := []struct {
			target string
			call   string
			check  func(t *testing.T, svc *tu.MockService)
		}{
			{target: "/api/player/pause", call: "Pause"},
			{target: "/api/player/next", call: "Next"},
			{target: "/api/player/previous", call: "Previous"},
			{target: "/api/player/prev", call: "Previous"},
			{target: "/api/player/play", call: "Play", check: func(t *testing.T, svc *tu.MockService) {
				if svc.LastURI != "" {
					t.Errorf("expected resume without uri, got %q", svc.LastURI)
				}
			}},
			{target: "/api/player/repeat?state=track", call: "Repeat", check: func(t *testing.T, svc *tu.MockService) {
				if svc.LastRepeat != models.RepeatTrack {
					t.Errorf("expected repeat track, got %q", svc.LastRepeat)
				}
			}},
			{target: "/api/player/shuffle?state=false", call: "Shuffle", check: func(t *testing.T, svc *tu.MockService) {
				if svc.LastShuffle {
					t.Error("expected shuffle off")
				}
			}},
		}

		for _, tc := range tests {
			t.Run(tc.target, func(t *testing.T) {
				svc := &tu.MockService{Playback: samplePlayback()}
				h := newTestServer(t, &fakeAuth{authenticated: true}, svc, "")

				rec := do(t, h, http.MethodPost, tc.target)
				if rec.Code != http.StatusOK {
					t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
				}

				calls := svc.Called()
				if len(calls) != 2 || calls[0] != tc.call || calls[1] != "CurrentPlayback" {
					t.Errorf("expected [%s CurrentPlayback], got %v", tc.call, calls)
				}
				if tc.check != nil {
					tc.check(t, svc)
				}
				if body := decode(t, rec); body["playback"] == nil {
					t.Error("expected refreshed playback in response")
				}
			})
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		svc := &tu.MockService{}
		h := newTestServer(t, &fakeAuth{authenticated: true}, svc, "")
		rec := do(t, h, http.MethodPost, "/api/player/rewind")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(svc.Called()) != 0 {
			t.Errorf("expected no service calls, got %v", svc.Called())
		}
	})

	t.Run("commands are POST only", func(t *testing.T) {
		h := newTestServer(t, &fakeAuth{authenticated: true}, &tu.MockService{}, "")
		rec := do(t, h, http.MethodGet, "/api/player/next")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != http.MethodPost {
			t.Errorf("expected Allow POST, got %q", got)
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"expired token", &services.APIError{Status: http.StatusUnauthorized, Message: "The access token expired"}, http.StatusUnauthorized},
			{"no token", shared.ErrNotAuthenticated, http.StatusUnauthorized},
			{"bad argument", shared.ErrInvalidArgument, http.StatusBadRequest},
			{"provider error", &services.APIError{Status: http.StatusNotFound, Message: "Player command failed: No active device found"}, http.StatusBadGateway},
			{"transport", errors.New("connection reset"), http.StatusBadGateway},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				h := newTestServer(t, &fakeAuth{authenticated: true}, &tu.MockService{Err: tc.err}, "")
				rec := do(t, h, http.MethodGet, "/api/player")
				if rec.Code != tc.want {
					t.Errorf("expected %d, got %d", tc.want, rec.Code)
				}
				if body := decode(t, rec); body["error"] != tc.err.Error() {
					t.Errorf("expected error %q, got %v", tc.err.Error(), body["error"])
				}
			})
		}
	})
}

func TestSearchAPI(t *testing.T) {
	t.Run("results", func(t *testing.T) {
		svc := &tu.MockService{Tracks: []models.Track{samplePlayback().Track}}
		h := newTestServer(t, &fakeAuth{authenticated: true}, svc, "")

		rec := do(t, h, http.MethodGet, "/api/search?q=never+gonna&limit=5")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var resp searchResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(resp.Tracks) != 1 || resp.Tracks[0].URI != "spotify:track:4uLU6hMCjMI75M1A2tKUQC" {
			t.Errorf("unexpected tracks: %+v", resp.Tracks)
		}
		if resp.Message != "" {
			t.Errorf("expected no message, got %q", resp.Message)
		}
		if svc.LastQuery != "never gonna" {
			t.Errorf("expected query %q, got %q", "never gonna", svc.LastQuery)
		}
	})

	t.Run("no results", func(t *testing.T) {
		h := newTestServer(t, &fakeAuth{authenticated: true}, &tu.MockService{}, "")
		body := decode(t, do(t, h, http.MethodGet, "/api/search?q=zzzz"))

		tracks, ok := body["tracks"].([]any)
		if !ok || len(tracks) != 0 {
			t.Errorf("expected empty tracks array, got %v", body["tracks"])
		}
		if body["message"] != formatter.NoResults {
			t.Errorf("expected %q, got %v", formatter.NoResults, body["message"])
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		svc := &tu.MockService{}
		h := newTestServer(t, &fakeAuth{authenticated: true}, svc, "")
		rec := do(t, h, http.MethodGet, "/api/search?q=rick&limit=lots")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(svc.Called()) != 0 {
			t.Errorf("expected no service calls, got %v", svc.Called())
		}
	})
}

func TestRun(t *testing.T) {
	s, err := New(Opts{Auth: &fakeAuth{}, Service: &tu.MockService{}, Logger: shared.NewLogger(io.Discard)})
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

func TestRedirectPathConflicts(t *testing.T) {
	for _, p := range []string{"/login", "/api", "/api/status", "/api/player/next", "/widget.js", "/manifest.json", "callback", "/{x}"} {
		t.Run(p, func(t *testing.T) {
			_, err := New(Opts{Auth: &fakeAuth{}, Service: &tu.MockService{}, RedirectPath: p, Logger: shared.NewLogger(io.Discard)})
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	for _, p := range []string{"/", "/callback", "/auth/spotify"} {
		t.Run(p, func(t *testing.T) {
			if _, err := New(Opts{Auth: &fakeAuth{}, Service: &tu.MockService{}, RedirectPath: p, Logger: shared.NewLogger(io.Discard)}); err != nil {
				t.Errorf("expected %s to be accepted, got %v", p, err)
			}
		})
	}
}
