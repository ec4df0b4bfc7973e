// Spotify Web API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/

package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/shared"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyDevice represents the device a playback is running on.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// SpotifyPlayback is the body of GET /me/player.
//
// Item is nil when an ad or nothing is playing.
type SpotifyPlayback struct {
	Device       SpotifyDevice `json:"device"`
	RepeatState  string        `json:"repeat_state"`
	ShuffleState bool          `json:"shuffle_state"`
	ProgressMS   int           `json:"progress_ms"`
	IsPlaying    bool          `json:"is_playing"`
	Item         *SpotifyTrack `json:"item"`
}

// SpotifySearchResponse is the body of GET /search?type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items  []SpotifyTrack `json:"items"`
		Total  int            `json:"total"`
		Limit  int            `json:"limit"`
		Offset int            `json:"offset"`
	} `json:"tracks"`
}

type playRequest struct {
	URIs []string `json:"uris"`
}

// SpotifyService implements [Service] on top of a [Session].
type SpotifyService struct {
	session *Session
	logger  *log.Logger
}

// NewSpotifyService creates a Spotify service issuing calls through session.
func NewSpotifyService(session *Session, logger *log.Logger) *SpotifyService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SpotifyService{session: session, logger: logger}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Session returns the session the service calls through.
func (s *SpotifyService) Session() *Session {
	return s.session
}

// Call passes a raw request through to the session.
func (s *SpotifyService) Call(ctx context.Context, endpoint, method string, body any) (*APIResponse, error) {
	return s.session.Call(ctx, endpoint, method, body)
}

// doRequest performs an authenticated call and decodes a 2xx body into result when one is present.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	resp, err := s.session.Call(ctx, endpoint, method, body)
	if err != nil {
		return err
	}

	if apiErr := resp.Err(); apiErr != nil {
		s.logger.Debug("spotify request failed", "method", method, "endpoint", endpoint, "status", apiErr.Status)
		return apiErr
	}

	if result != nil {
		return resp.Decode(result)
	}
	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentPlayback retrieves the player state. It returns nil, nil when there is no active playback.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*models.Playback, error) {
	var playback SpotifyPlayback
	if err := s.doRequest(ctx, http.MethodGet, "me/player", nil, &playback); err != nil {
		return nil, err
	}

	if playback.Item == nil {
		return nil, nil
	}

	return &models.Playback{
		Track:        toTrack(*playback.Item),
		ProgressMS:   playback.ProgressMS,
		IsPlaying:    playback.IsPlaying,
		ShuffleState: playback.ShuffleState,
		RepeatState:  playback.RepeatState,
		Device: models.Device{
			ID:            playback.Device.ID,
			Name:          playback.Device.Name,
			Type:          playback.Device.Type,
			VolumePercent: playback.Device.VolumePercent,
		},
	}, nil
}

func (s *SpotifyService) Play(ctx context.Context, uri string) error {
	var body any
	if uri != "" {
		body = playRequest{URIs: []string{uri}}
	}
	return s.doRequest(ctx, http.MethodPut, "me/player/play", body, nil)
}

func (s *SpotifyService) Pause(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPut, "me/player/pause", nil, nil)
}

func (s *SpotifyService) Next(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "me/player/next", nil, nil)
}

func (s *SpotifyService) Previous(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "me/player/previous", nil, nil)
}

// Repeat sets the repeat mode. An empty mode means context.
func (s *SpotifyService) Repeat(ctx context.Context, mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "":
		mode = models.RepeatContext
	case models.RepeatOff, models.RepeatTrack, models.RepeatContext:
	default:
		return fmt.Errorf("%w: repeat mode %q (want off, track or context)", shared.ErrInvalidArgument, mode)
	}
	return s.doRequest(ctx, http.MethodPut, "me/player/repeat?state="+mode, nil, nil)
}

func (s *SpotifyService) Shuffle(ctx context.Context, on bool) error {
	return s.doRequest(ctx, http.MethodPut, "me/player/shuffle?state="+strconv.FormatBool(on), nil, nil)
}

// SearchTracks searches the catalog for tracks. A blank query returns nil without a request.
//
// limit defaults to 20 and is capped at 50.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	endpoint := fmt.Sprintf("search?q=%s&type=track&limit=%d", escapeComponent(query), limit)

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, toTrack(item))
	}
	return tracks, nil
}

func toTrack(t SpotifyTrack) models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	var art string
	if len(t.Album.Images) > 0 {
		art = t.Album.Images[0].URL
	}

	return models.Track{
		ID:          t.ID,
		URI:         t.URI,
		Name:        t.Name,
		Artists:     artists,
		Album:       t.Album.Name,
		AlbumArtURL: art,
		DurationMS:  t.DurationMS,
	}
}

// ParseTrackURI accepts a spotify:track: URI, an open.spotify.com track link, or a bare ID and returns a track URI.
func ParseTrackURI(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", fmt.Errorf("%w: track", shared.ErrMissingArgument)
	case strings.HasPrefix(s, "spotify:"):
		return s, nil
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) < 2 || parts[len(parts)-2] != "track" {
			return "", fmt.Errorf("%w: not a track link: %s", shared.ErrInvalidArgument, s)
		}
		return "spotify:track:" + parts[len(parts)-1], nil
	default:
		return "spotify:track:" + s, nil
	}
}
