package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotwidget/internal/formatter"
	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/desertthunder/spotwidget/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlayerNow prints the current playback.
func (r *Runner) PlayerNow(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuth(ctx); err != nil {
		return err
	}

	pb, err := r.ctl.Refresh(ctx)
	if err != nil {
		return err
	}
	return r.writePlayback(pb, cmd.Bool("json"))
}

// PlayerPlay resumes playback, or starts the track given as a URI, open.spotify.com link or ID.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	var uri string
	if arg := cmd.StringArg("track"); arg != "" {
		parsed, err := services.ParseTrackURI(arg)
		if err != nil {
			return err
		}
		uri = parsed
	}
	return r.runAction(ctx, cmd, tasks.ActionPlay, uri)
}

// PlayerAction runs the player command named by the invoked subcommand (pause, toggle, next, previous).
func (r *Runner) PlayerAction(ctx context.Context, cmd *cli.Command) error {
	action, err := tasks.ParseAction(cmd.Name)
	if err != nil {
		return err
	}
	return r.runAction(ctx, cmd, action, "")
}

// PlayerRepeat sets the repeat mode. Defaults to context.
func (r *Runner) PlayerRepeat(ctx context.Context, cmd *cli.Command) error {
	mode := strings.ToLower(strings.TrimSpace(cmd.StringArg("mode")))
	switch mode {
	case "":
		mode = models.RepeatContext
	case models.RepeatOff, models.RepeatContext, models.RepeatTrack:
	default:
		return fmt.Errorf("%w: repeat mode must be off, context or track, got %q", shared.ErrInvalidArgument, mode)
	}
	return r.runAction(ctx, cmd, tasks.ActionRepeat, mode)
}

// PlayerShuffle turns shuffle on (the default) or off.
func (r *Runner) PlayerShuffle(ctx context.Context, cmd *cli.Command) error {
	state, err := parseToggle(cmd.StringArg("state"))
	if err != nil {
		return err
	}
	return r.runAction(ctx, cmd, tasks.ActionShuffle, state)
}

func (r *Runner) runAction(ctx context.Context, cmd *cli.Command, action tasks.Action, arg string) error {
	if err := r.ensureAuth(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.Update, 8)
	pb, err := r.ctl.Do(ctx, progress, action, arg)
	close(progress)
	for u := range progress {
		r.logger.Debug(u.Message, "phase", u.Phase, "action", u.Action)
	}
	if err != nil {
		return err
	}

	if !cmd.Bool("json") {
		r.writeSuccess("%s", strings.ToUpper(string(action[:1]))+string(action[1:]))
	}
	return r.writePlayback(pb, cmd.Bool("json"))
}

func (r *Runner) writePlayback(pb *models.Playback, asJSON bool) error {
	if asJSON {
		return r.writeJSON(map[string]any{"playback": pb}, true)
	}
	return r.writePlain("%s", formatter.PlaybackToText(pb))
}

// parseToggle maps on/off style words to "true"/"false". Empty means on.
func parseToggle(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "on", "true", "yes", "1":
		return "true", nil
	case "off", "false", "no", "0":
		return "false", nil
	default:
		return "", fmt.Errorf("%w: expected on or off, got %q", shared.ErrInvalidArgument, s)
	}
}
