// Service interface for controlling a music player over HTTP, and browser navigation for the login.

package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/shared"
)

// Service defines the player operations the widgets need from a music provider.
type Service interface {
	// CurrentPlayback returns the player state, or nil when nothing is playing.
	CurrentPlayback(ctx context.Context) (*models.Playback, error)

	// Play starts uri, or resumes the current item when uri is empty.
	Play(ctx context.Context, uri string) error

	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	// Repeat sets the repeat mode: off, track or context.
	Repeat(ctx context.Context, mode string) error

	Shuffle(ctx context.Context, on bool) error

	// SearchTracks returns up to limit tracks matching query.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Navigator transfers the user to an authorization URL.
//
// The CLI opens a browser; the web widget answers with an HTTP redirect.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

var openBrowser = shared.OpenBrowser

// BrowserNavigator opens the URL in the system browser and prints it to Out when that fails.
type BrowserNavigator struct {
	Out    io.Writer
	Logger *log.Logger
}

func (b BrowserNavigator) Navigate(ctx context.Context, url string) error {
	out := b.Out
	if out == nil {
		out = os.Stderr
	}

	if err := openBrowser(url); err != nil {
		if b.Logger != nil {
			b.Logger.Warn("could not open browser", "error", err)
		}
		fmt.Fprintf(out, "Open this URL in your browser to log in:\n\n  %s\n\n", url)
	}
	return nil
}
