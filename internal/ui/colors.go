package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#1DB954", "#FFFFFF", "#B3B3B3", "#FF4D4D", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	track  lipgloss.Style
	artist lipgloss.Style
	active lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
}

// NewPalette builds a [Palette] from the accent, primary text, secondary text, error, warning and muted colors.
func NewPalette(accent, primary, secondary, e, w, muted string) *Palette {
	return &Palette{
		title:  NewBold(accent).MarginBottom(1),
		track:  NewBold(primary),
		artist: NewStyle(secondary),
		active: NewBold(accent),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(muted),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// toggle renders label in the accent color when on.
func (p *Palette) toggle(label string, on bool) string {
	if on {
		return p.active.Render(label)
	}
	return p.help.Render(label)
}
