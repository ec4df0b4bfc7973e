package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/services"
	"github.com/desertthunder/spotwidget/internal/shared"
)

// PlayRefreshDelay is how long [Controller.Do] waits after playing a specific URI before re-reading the player.
const PlayRefreshDelay = 700 * time.Millisecond

// Action is a player command.
type Action string

const (
	ActionPlay     Action = "play"
	ActionPause    Action = "pause"
	ActionToggle   Action = "toggle"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionRepeat   Action = "repeat"
	ActionShuffle  Action = "shuffle"
)

// Actions lists every [Action] in display order.
var Actions = []Action{ActionPlay, ActionPause, ActionToggle, ActionNext, ActionPrevious, ActionRepeat, ActionShuffle}

// ParseAction maps a command name to an [Action]. "prev" is accepted for previous.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "prev" {
		return ActionPrevious, nil
	}
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown player action %q", shared.ErrInvalidArgument, s)
}

// Controller sends player commands and refreshes the playback after each one.
type Controller struct {
	svc       services.Service
	refresher *Refresher
	playDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewController creates a [Controller] for svc.
func NewController(svc services.Service) *Controller {
	return &Controller{
		svc:       svc,
		refresher: NewRefresher(svc),
		playDelay: PlayRefreshDelay,
		sleep:     sleepContext,
	}
}

// Refresher returns the refresher the controller re-reads the player with.
func (c *Controller) Refresher() *Refresher {
	return c.refresher
}

// Refresh re-reads the player.
func (c *Controller) Refresh(ctx context.Context) (*models.Playback, error) {
	pb, _, err := c.refresher.Refresh(ctx)
	return pb, err
}

// Do runs action and returns the playback read afterwards (nil when nothing is playing).
//
// arg is the track URI for play, the mode for repeat ("off", "track", "context"), and "true"/"false" for shuffle.
// An empty shuffle arg turns shuffle on.
func (c *Controller) Do(ctx context.Context, progress chan<- Update, action Action, arg string) (*models.Playback, error) {
	send(progress, commandUpdate(action, arg))

	if err := c.run(ctx, action, arg); err != nil {
		return nil, err
	}
	c.refresher.Invalidate()

	if action == ActionPlay && arg != "" && c.playDelay > 0 {
		send(progress, waitUpdate(action))
		if err := c.sleep(ctx, c.playDelay); err != nil {
			return nil, err
		}
	}

	send(progress, refreshUpdate(action))
	pb, _, err := c.refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	send(progress, refreshedUpdate(action, pb))
	return pb, nil
}

func (c *Controller) run(ctx context.Context, action Action, arg string) error {
	switch action {
	case ActionPlay:
		return c.svc.Play(ctx, arg)
	case ActionPause:
		return c.svc.Pause(ctx)
	case ActionToggle:
		pb, _, err := c.refresher.Refresh(ctx)
		if err != nil {
			return err
		}
		if pb != nil && pb.IsPlaying {
			return c.svc.Pause(ctx)
		}
		return c.svc.Play(ctx, "")
	case ActionNext:
		return c.svc.Next(ctx)
	case ActionPrevious:
		return c.svc.Previous(ctx)
	case ActionRepeat:
		return c.svc.Repeat(ctx, arg)
	case ActionShuffle:
		on := true
		if arg != "" {
			v, err := strconv.ParseBool(arg)
			if err != nil {
				return fmt.Errorf("%w: shuffle state %q", shared.ErrInvalidArgument, arg)
			}
			on = v
		}
		return c.svc.Shuffle(ctx, on)
	default:
		return fmt.Errorf("%w: unknown player action %q", shared.ErrInvalidArgument, action)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
