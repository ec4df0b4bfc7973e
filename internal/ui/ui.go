package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotwidget/internal/formatter"
	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	NowPlayingView ViewState = iota
	SearchView
	ResultsView
)

const progressBarWidth = 30

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	svc      services.Service
	ctl      *tasks.Controller
	width    int
	height   int
	playback *models.Playback
	loaded   bool
	status   string
	err      error

	busy     bool
	updates  chan tasks.Update
	finished chan playbackResult

	input   textinput.Model
	results list.Model
	query   string

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, svc services.Service, ctl *tasks.Controller) *Model {
	input := textinput.New()
	input.Placeholder = "Search for a song..."
	input.CharLimit = 200

	return &Model{
		ctx:   ctx,
		view:  NowPlayingView,
		svc:   svc,
		ctl:   ctl,
		input: input,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// Init initializes the TUI by reading the player.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlayback()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultsView {
			m.results.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case NowPlayingView:
			return m.handleNowPlayingKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaybackFetched:
		r := msg.data.(playbackResult)
		m.loaded = true
		m.err = r.err
		if r.err == nil {
			m.playback = r.playback
		}
		return m, nil

	case MsgCommandUpdate:
		update := msg.data.(tasks.Update)
		m.status = update.Message
		if update.Playback != nil {
			m.playback = update.Playback
		}
		return m, m.waitForUpdate()

	case MsgCommandDone:
		r := msg.data.(playbackResult)
		m.busy = false
		m.updates = nil
		m.finished = nil
		m.loaded = true
		m.err = r.err
		if r.err == nil {
			m.playback = r.playback
			m.status = ""
		}
		return m, nil

	case MsgSearchDone:
		r := msg.data.(searchResult)
		m.busy = false
		if r.err != nil {
			m.err = r.err
			return m, nil
		}
		if len(r.tracks) == 0 {
			m.status = formatter.NoResults
			return m, nil
		}
		m.query = r.query
		m.status = ""
		m.results = list.New(trackItems(r.tracks), list.NewDefaultDelegate(), 0, 0)
		m.results.Title = fmt.Sprintf("Results for '%s'", r.query)
		m.results.SetFilteringEnabled(false)
		m.results.SetShowHelp(false)
		m.results.SetSize(m.width-4, m.height-6)
		m.input.Blur()
		m.view = ResultsView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	case ResultsView:
		return m.renderResults()
	default:
		return m.renderNowPlaying()
	}
}

func (m *Model) handleNowPlayingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.status = ""
		m.err = nil
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.refresh):
		if m.busy {
			return m, nil
		}
		return m, m.fetchPlayback()
	case key.Matches(msg, m.keys.toggle):
		return m, m.runCommand(tasks.ActionToggle, "")
	case key.Matches(msg, m.keys.next):
		return m, m.runCommand(tasks.ActionNext, "")
	case key.Matches(msg, m.keys.previous):
		return m, m.runCommand(tasks.ActionPrevious, "")
	case key.Matches(msg, m.keys.repeat):
		current := models.RepeatOff
		if m.playback != nil && m.playback.RepeatState != "" {
			current = m.playback.RepeatState
		}
		return m, m.runCommand(tasks.ActionRepeat, models.NextRepeatMode(current))
	case key.Matches(msg, m.keys.shuffle):
		on := m.playback == nil || !m.playback.ShuffleState
		return m, m.runCommand(tasks.ActionShuffle, fmt.Sprint(on))
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.view = NowPlayingView
		m.status = ""
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" || m.busy {
			return m, nil
		}
		m.busy = true
		m.err = nil
		m.status = fmt.Sprintf("Searching for '%s'...", query)
		return m, m.search(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.enter):
		selected, ok := m.results.SelectedItem().(trackItem)
		if !ok {
			return m, nil
		}
		m.view = NowPlayingView
		return m, m.runCommand(tasks.ActionPlay, selected.track.URI)
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlayback() tea.Cmd {
	return func() tea.Msg {
		pb, err := m.ctl.Refresh(m.ctx)
		return playbackFetchedMsg(pb, err)
	}
}

func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.svc.SearchTracks(m.ctx, query, 0)
		return searchDoneMsg(query, tracks, err)
	}
}

// runCommand starts action in the background and returns a command that relays its progress.
//
// Keys pressed while a command is running are ignored.
func (m *Model) runCommand(action tasks.Action, arg string) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.err = nil

	updates := make(chan tasks.Update, 8)
	finished := make(chan playbackResult, 1)
	m.updates = updates
	m.finished = finished

	go func() {
		pb, err := m.ctl.Do(m.ctx, updates, action, arg)
		finished <- playbackResult{pb, err}
		close(updates)
	}()

	return m.waitForUpdate()
}

func (m *Model) waitForUpdate() tea.Cmd {
	updates, finished := m.updates, m.finished
	if updates == nil {
		return nil
	}

	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			r := <-finished
			return commandDoneMsg(r.playback, r.err)
		}
		return commandUpdateMsg(update)
	}
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("♫ Now Playing"))
	b.WriteString("\n")

	switch {
	case !m.loaded:
		b.WriteString("Loading...\n")
	case m.playback == nil:
		b.WriteString(styles.artist.Render("Nothing is playing."))
		b.WriteString("\n")
	default:
		pb := m.playback
		b.WriteString(styles.track.Render(pb.Track.Name))
		b.WriteString("\n")
		b.WriteString(styles.artist.Render(pb.Track.ArtistNames()))
		b.WriteString("\n\n")

		state := "▶ Playing"
		if !pb.IsPlaying {
			state = "⏸ Paused"
		}
		fmt.Fprintf(&b, "%s %s / %s  %s\n",
			progressBar(pb.ProgressMS, pb.Track.DurationMS, progressBarWidth),
			formatter.FormatTime(pb.ProgressMS),
			formatter.FormatTime(pb.Track.DurationMS),
			state,
		)

		repeat := pb.RepeatState
		if repeat == "" {
			repeat = models.RepeatOff
		}
		fmt.Fprintf(&b, "%s  %s",
			styles.toggle("shuffle", pb.ShuffleState),
			styles.toggle("repeat: "+repeat, repeat != models.RepeatOff),
		)
		if pb.Device.Name != "" {
			fmt.Fprintf(&b, "  %s", styles.help.Render("on "+pb.Device.Name))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())

	helpKeys := []key.Binding{m.keys.toggle, m.keys.next, m.keys.previous, m.keys.repeat, m.keys.shuffle, m.keys.refresh, m.keys.search, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search")
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.input.View(), m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResults() string {
	playKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play"))
	helpKeys := []key.Binding{playKey, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.results.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderStatus() string {
	switch {
	case m.err != nil:
		return "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	case m.status != "":
		return "\n" + styles.warn.Render(m.status) + "\n"
	default:
		return ""
	}
}

// progressBar draws a fixed-width bar for progress out of duration.
func progressBar(progress, duration, width int) string {
	filled := 0
	if duration > 0 {
		filled = progress * width / duration
	}
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
