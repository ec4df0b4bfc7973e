package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotwidget/internal/formatter"
	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search looks up tracks and prints them in the requested format, or writes them to --output.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	limit := int(cmd.Int("limit"))
	if limit < 1 || limit > 50 {
		return fmt.Errorf("%w: --limit must be between 1 and 50", shared.ErrInvalidFlag)
	}
	format := cmd.String("format")

	if err := r.ensureAuth(ctx); err != nil {
		return err
	}

	r.logger.Info("searching tracks", "query", query, "limit", limit)
	tracks, err := r.service.SearchTracks(ctx, query, limit)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteTracks(path, format, query, tracks); err != nil {
			return err
		}
		r.logger.Info("results written", "file", path, "tracks", len(tracks))
		return r.writeSuccess("%d tracks written to %s", len(tracks), path)
	}

	data, err := formatter.FormatTracks(format, query, tracks)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}
