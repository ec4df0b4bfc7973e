// Package ui implements the terminal widget using bubbletea's Elm architecture.
//
// The widget has three views:
//  1. [NowPlayingView] : Current track, progress, play state, shuffle and repeat
//  2. [SearchView] : Track search prompt
//  3. [ResultsView] : Search results; enter plays the selected track
//
// Player commands run through a [tasks.Controller]. Its progress updates flow through a channel and arrive as [Msg]
// values, so the view shows what is being sent and re-reads the player once the command lands.
//
// Keys: space play/pause, n next, p previous, r repeat, s shuffle, f refresh, / search, enter play, esc back, q quit.
// Contextual help is rendered with charmbracelet/bubbles/help.
package ui
