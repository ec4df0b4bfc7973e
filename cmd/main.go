package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := newApp(runner)
	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "spotwidget",
		Usage:    "Spotify now-playing widget for the terminal and the browser",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   r.Configure,
		Commands: r.register(),
	}
}
