// Package formatter renders playback state and search results as plain text, CSV, Markdown, or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/shared"
)

// NoResults is printed in place of an empty result list.
const NoResults = "No results found."

// Output formats accepted by [FormatTracks].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// FormatTime renders milliseconds as m:ss. Negative values render as 0:00.
func FormatTime(ms int) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// TrackLine renders "Name - Artist, Artist".
func TrackLine(t models.Track) string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Name, t.ArtistNames())
}

// PlaybackToText renders the now-playing block. A nil playback renders "Nothing is playing."
func PlaybackToText(pb *models.Playback) string {
	if pb == nil {
		return "Nothing is playing.\n"
	}

	state := "Paused"
	if pb.IsPlaying {
		state = "Playing"
	}

	shuffle := "off"
	if pb.ShuffleState {
		shuffle = "on"
	}

	repeat := pb.RepeatState
	if repeat == "" {
		repeat = models.RepeatOff
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", pb.Track.Name)
	fmt.Fprintf(&buf, "%s\n", pb.Track.ArtistNames())
	if pb.Track.Album != "" {
		fmt.Fprintf(&buf, "%s\n", pb.Track.Album)
	}
	fmt.Fprintf(&buf, "%s / %s  %s\n", FormatTime(pb.ProgressMS), FormatTime(pb.Track.DurationMS), state)
	fmt.Fprintf(&buf, "Shuffle: %s  Repeat: %s", shuffle, repeat)
	if pb.Device.Name != "" {
		fmt.Fprintf(&buf, "  Device: %s", pb.Device.Name)
	}
	buf.WriteString("\n")
	return buf.String()
}

// TracksToText renders one numbered line per track, or [NoResults].
func TracksToText(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	if len(tracks) == 0 {
		buf.WriteString(NoResults + "\n")
		return buf.Bytes(), nil
	}

	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, TrackLine(track), FormatTime(track.DurationMS))
	}
	return buf.Bytes(), nil
}

// TracksToCSV converts tracks to CSV with columns: ID, URI, Name, Artists, Album, Duration
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "URI", "Name", "Artists", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.URI,
			track.Name,
			track.ArtistNames(),
			track.Album,
			strconv.Itoa(track.DurationMS / 1000),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown renders tracks as a Markdown list under a heading for query.
func TracksToMarkdown(query string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer

	if query != "" {
		fmt.Fprintf(&buf, "# Results for %q\n\n", query)
	}

	if len(tracks) == 0 {
		buf.WriteString("_" + NoResults + "_\n")
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s] `%s`\n", i+1, track.ArtistNames(), track.Name, albumPart, FormatTime(track.DurationMS), track.URI)
	}

	return buf.Bytes(), nil
}

// TracksToJSON renders tracks as an indented JSON array. Nil renders as [].
func TracksToJSON(tracks []models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	return shared.MarshalJSON(tracks, true)
}

// FormatTracks renders tracks in format. An empty format means text.
func FormatTracks(format, query string, tracks []models.Track) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return TracksToText(tracks)
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatMarkdown, "md":
		return TracksToMarkdown(query, tracks)
	case FormatJSON:
		return TracksToJSON(tracks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want text, csv, markdown or json)", shared.ErrInvalidFlag, format)
	}
}

// WriteTracks renders tracks in format and writes them to path.
func WriteTracks(path, format, query string, tracks []models.Track) error {
	data, err := FormatTracks(format, query, tracks)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
