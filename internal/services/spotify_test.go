package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotwidget/internal/shared"
)

const playbackJSON = `{
  "device": {"id": "d1", "name": "Kitchen", "type": "Speaker", "is_active": true, "volume_percent": 40},
  "repeat_state": "context",
  "shuffle_state": true,
  "progress_ms": 61000,
  "is_playing": true,
  "item": {
    "id": "4uLU6hMCjMI75M1A2tKUQC",
    "name": "Never Gonna Give You Up",
    "uri": "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
    "duration_ms": 213573,
    "artists": [{"id": "a1", "name": "Rick Astley"}],
    "album": {"id": "al1", "name": "Whenever You Need Somebody", "images": [{"url": "https://i.scdn.co/image/large", "height": 640, "width": 640}]}
  }
}`

func newTestSpotify(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSpotifyService(newAuthedSession(srv.URL+"/v1", "T"), log.New(io.Discard))
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if got := NewSpotifyService(NewSession("", nil), nil).Name(); got != "Spotify" {
			t.Errorf("expected Spotify, got %s", got)
		}
	})

	t.Run("CurrentPlayback", func(t *testing.T) {
		t.Run("Maps Playback", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/v1/me/player" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, playbackJSON)
			})

			pb, err := s.CurrentPlayback(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pb == nil {
				t.Fatal("expected playback")
			}
			if pb.Track.Name != "Never Gonna Give You Up" || pb.Track.ArtistNames() != "Rick Astley" {
				t.Errorf("unexpected track %+v", pb.Track)
			}
			if pb.Track.AlbumArtURL != "https://i.scdn.co/image/large" {
				t.Errorf("expected first album image, got %q", pb.Track.AlbumArtURL)
			}
			if pb.ProgressMS != 61000 || pb.Track.DurationMS != 213573 {
				t.Errorf("unexpected timing %d/%d", pb.ProgressMS, pb.Track.DurationMS)
			}
			if !pb.IsPlaying || !pb.ShuffleState || pb.RepeatState != "context" {
				t.Errorf("unexpected state %+v", pb)
			}
			if pb.Device.Name != "Kitchen" {
				t.Errorf("expected device Kitchen, got %q", pb.Device.Name)
			}
		})

		t.Run("No Content", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			pb, err := s.CurrentPlayback(ctx)
			if err != nil || pb != nil {
				t.Errorf("expected (nil, nil), got (%v, %v)", pb, err)
			}
		})

		t.Run("No Item", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"is_playing":false,"item":null}`)
			})
			pb, err := s.CurrentPlayback(ctx)
			if err != nil || pb != nil {
				t.Errorf("expected (nil, nil), got (%v, %v)", pb, err)
			}
		})

		t.Run("API Error", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error":{"status":401,"message":"Invalid access token"}}`)
			})
			_, err := s.CurrentPlayback(ctx)
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != 401 {
				t.Errorf("expected 401 APIError, got %v", err)
			}
		})

		t.Run("Not Authenticated", func(t *testing.T) {
			s := NewSpotifyService(NewSession("", nil), log.New(io.Discard))
			if _, err := s.CurrentPlayback(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("Player Commands", func(t *testing.T) {
		tests := []struct {
			name   string
			call   func(s *SpotifyService) error
			method string
			uri    string
			body   string
		}{
			{"Play URI", func(s *SpotifyService) error { return s.Play(ctx, "spotify:track:1") }, "PUT", "/v1/me/player/play", `{"uris":["spotify:track:1"]}`},
			{"Resume", func(s *SpotifyService) error { return s.Play(ctx, "") }, "PUT", "/v1/me/player/play", ""},
			{"Pause", func(s *SpotifyService) error { return s.Pause(ctx) }, "PUT", "/v1/me/player/pause", ""},
			{"Next", func(s *SpotifyService) error { return s.Next(ctx) }, "POST", "/v1/me/player/next", ""},
			{"Previous", func(s *SpotifyService) error { return s.Previous(ctx) }, "POST", "/v1/me/player/previous", ""},
			{"Repeat Default", func(s *SpotifyService) error { return s.Repeat(ctx, "") }, "PUT", "/v1/me/player/repeat?state=context", ""},
			{"Repeat Track", func(s *SpotifyService) error { return s.Repeat(ctx, "Track") }, "PUT", "/v1/me/player/repeat?state=track", ""},
			{"Shuffle On", func(s *SpotifyService) error { return s.Shuffle(ctx, true) }, "PUT", "/v1/me/player/shuffle?state=true", ""},
			{"Shuffle Off", func(s *SpotifyService) error { return s.Shuffle(ctx, false) }, "PUT", "/v1/me/player/shuffle?state=false", ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
					if r.Method != tt.method {
						t.Errorf("expected %s, got %s", tt.method, r.Method)
					}
					if got := r.URL.RequestURI(); got != tt.uri {
						t.Errorf("expected %s, got %s", tt.uri, got)
					}
					body, _ := io.ReadAll(r.Body)
					if string(body) != tt.body {
						t.Errorf("expected body %q, got %q", tt.body, body)
					}
					w.WriteHeader(http.StatusNoContent)
				})

				if err := tt.call(s); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}

		t.Run("Invalid Repeat Mode", func(t *testing.T) {
			var hits atomic.Int32
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
			if err := s.Repeat(ctx, "forever"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if hits.Load() != 0 {
				t.Error("expected no request for an invalid mode")
			}
		})

		t.Run("No Active Device", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"error":{"status":404,"message":"Player command failed: No active device found"}}`)
			})
			err := s.Pause(ctx)
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != 404 {
				t.Errorf("expected 404 APIError, got %v", err)
			}
		})
	})

	t.Run("SearchTracks", func(t *testing.T) {
		t.Run("Builds Query", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.RawQuery; got != "q=daft%20punk%20%26%20friends&type=track&limit=20" {
					t.Errorf("unexpected query %s", got)
				}
				io.WriteString(w, `{"tracks":{"items":[
					{"id":"1","name":"One More Time","uri":"spotify:track:1","duration_ms":320000,
					 "artists":[{"name":"Daft Punk"}],"album":{"name":"Discovery","images":[]}},
					{"id":"2","name":"Get Lucky","uri":"spotify:track:2","duration_ms":248000,
					 "artists":[{"name":"Daft Punk"},{"name":"Pharrell Williams"}],"album":{"name":"RAM"}}
				],"total":2,"limit":20,"offset":0}}`)
			})

			tracks, err := s.SearchTracks(ctx, "  daft punk & friends ", 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(tracks))
			}
			if tracks[1].ArtistNames() != "Daft Punk, Pharrell Williams" || tracks[1].URI != "spotify:track:2" {
				t.Errorf("unexpected track %+v", tracks[1])
			}
			if tracks[0].AlbumArtURL != "" {
				t.Error("expected no album art without images")
			}
		})

		t.Run("Limit Is Capped", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("limit"); got != "50" {
					t.Errorf("expected limit 50, got %s", got)
				}
				io.WriteString(w, `{"tracks":{"items":[]}}`)
			})
			if _, err := s.SearchTracks(ctx, "x", 500); err != nil {
				t.Fatal(err)
			}
		})

		t.Run("Zero Items", func(t *testing.T) {
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"tracks":{"items":[],"total":0}}`)
			})
			tracks, err := s.SearchTracks(ctx, "zzzzqqq", 5)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tracks == nil || len(tracks) != 0 {
				t.Errorf("expected an empty slice, got %#v", tracks)
			}
		})

		t.Run("Blank Query", func(t *testing.T) {
			var hits atomic.Int32
			s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
			tracks, err := s.SearchTracks(ctx, "   ", 20)
			if err != nil || tracks != nil {
				t.Errorf("expected (nil, nil), got (%v, %v)", tracks, err)
			}
			if hits.Load() != 0 {
				t.Error("expected no request for a blank query")
			}
		})
	})

	t.Run("UserProfile", func(t *testing.T) {
		s := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/me" {
				t.Errorf("expected /v1/me, got %s", r.URL.Path)
			}
			io.WriteString(w, `{"id":"user1","display_name":"Test User","product":"premium","followers":{"total":3}}`)
		})
		user, err := s.UserProfile(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if user.DisplayName != "Test User" || user.Product != "premium" || user.Followers.Total != 3 {
			t.Errorf("unexpected user %+v", user)
		}
	})
}

func TestParseTrackURI(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"spotify:track:4uLU6hMCjMI75M1A2tKUQC", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", nil},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", nil},
		{"4uLU6hMCjMI75M1A2tKUQC", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", nil},
		{"https://open.spotify.com/album/1", "", shared.ErrInvalidArgument},
		{"  ", "", shared.ErrMissingArgument},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTrackURI(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseTrackURI(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestBrowserNavigator(t *testing.T) {
	orig := openBrowser
	defer func() { openBrowser = orig }()

	t.Run("Opens Browser", func(t *testing.T) {
		var opened string
		openBrowser = func(u string) error { opened = u; return nil }

		var out bytes.Buffer
		if err := (BrowserNavigator{Out: &out}).Navigate(context.Background(), "https://example.com/a"); err != nil {
			t.Fatal(err)
		}
		if opened != "https://example.com/a" {
			t.Errorf("expected browser to open URL, got %q", opened)
		}
		if out.String() != "" {
			t.Errorf("expected no fallback output, got %q", out.String())
		}
	})

	t.Run("Prints URL On Failure", func(t *testing.T) {
		openBrowser = func(string) error { return errors.New("no display") }

		var out bytes.Buffer
		nav := BrowserNavigator{Out: &out, Logger: log.New(io.Discard)}
		if err := nav.Navigate(context.Background(), "https://example.com/b"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "https://example.com/b") {
			t.Errorf("expected URL in output, got %q", out.String())
		}
	})
}
