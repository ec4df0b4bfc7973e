package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaybackFetched MsgKind = iota
	MsgCommandUpdate
	MsgCommandDone
	MsgSearchDone
)

type playbackResult struct {
	playback *models.Playback
	err      error
}

type searchResult struct {
	query  string
	tracks []models.Track
	err    error
}

// playbackFetchedMsg is the constructor for [MsgPlaybackFetched]
func playbackFetchedMsg(pb *models.Playback, err error) Msg {
	return Msg{kind: MsgPlaybackFetched, data: playbackResult{pb, err}}
}

// commandUpdateMsg is the constructor for [MsgCommandUpdate]
func commandUpdateMsg(update tasks.Update) Msg {
	return Msg{kind: MsgCommandUpdate, data: update}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(pb *models.Playback, err error) Msg {
	return Msg{kind: MsgCommandDone, data: playbackResult{pb, err}}
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(query string, tracks []models.Track, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchResult{query, tracks, err}}
}
