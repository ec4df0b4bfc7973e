package web

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/spotwidget/internal/formatter"
	"github.com/desertthunder/spotwidget/internal/models"
)

type playbackView struct {
	Name        string `json:"name"`
	Artists     string `json:"artists"`
	Album       string `json:"album"`
	AlbumArtURL string `json:"album_art_url"`
	URI         string `json:"uri"`
	Progress    string `json:"progress"`
	Duration    string `json:"duration"`
	ProgressMS  int    `json:"progress_ms"`
	DurationMS  int    `json:"duration_ms"`
	IsPlaying   bool   `json:"is_playing"`
	Shuffle     bool   `json:"shuffle"`
	Repeat      string `json:"repeat"`
	Device      string `json:"device"`
}

type playerResponse struct {
	Playback *playbackView `json:"playback"`
}

type searchResponse struct {
	Tracks  []models.Track `json:"tracks"`
	Message string         `json:"message,omitempty"`
}

func newPlaybackView(pb *models.Playback) *playbackView {
	if pb == nil {
		return nil
	}

	repeat := pb.RepeatState
	if repeat == "" {
		repeat = models.RepeatOff
	}

	return &playbackView{
		Name:        pb.Track.Name,
		Artists:     pb.Track.ArtistNames(),
		Album:       pb.Track.Album,
		AlbumArtURL: pb.Track.AlbumArtURL,
		URI:         pb.Track.URI,
		Progress:    formatter.FormatTime(pb.ProgressMS),
		Duration:    formatter.FormatTime(pb.Track.DurationMS),
		ProgressMS:  pb.ProgressMS,
		DurationMS:  pb.Track.DurationMS,
		IsPlaying:   pb.IsPlaying,
		Shuffle:     pb.ShuffleState,
		Repeat:      repeat,
		Device:      pb.Device.Name,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
