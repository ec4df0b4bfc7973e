package models

import "strings"

// Track is a playable item.
type Track struct {
	ID          string   `json:"id"`
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	AlbumArtURL string   `json:"album_art_url,omitempty"`
	DurationMS  int      `json:"duration_ms"`
}

// ArtistNames joins the artist names with ", ".
func (t Track) ArtistNames() string {
	return strings.Join(t.Artists, ", ")
}

// Device is the player a [Playback] is running on.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	VolumePercent int    `json:"volume_percent"`
}

// Playback is a snapshot of the user's player.
type Playback struct {
	Track        Track  `json:"track"`
	ProgressMS   int    `json:"progress_ms"`
	IsPlaying    bool   `json:"is_playing"`
	ShuffleState bool   `json:"shuffle_state"`
	RepeatState  string `json:"repeat_state"` // off, track, context
	Device       Device `json:"device"`
}

// Repeat modes accepted by the player API, in the order the widgets cycle through them.
const (
	RepeatOff     = "off"
	RepeatContext = "context"
	RepeatTrack   = "track"
)

// NextRepeatMode returns the mode after current: off → context → track → off.
func NextRepeatMode(current string) string {
	switch current {
	case RepeatOff:
		return RepeatContext
	case RepeatContext:
		return RepeatTrack
	default:
		return RepeatOff
	}
}
