package tasks

import (
	"fmt"

	"github.com/desertthunder/spotwidget/internal/models"
)

// Update represents a progress event while a command runs.
type Update struct {
	Phase    Phase
	Action   Action
	Message  string
	Playback *models.Playback // set for PhaseRefreshed
}

// Operation phase enumeration
type Phase int

const (
	PhaseCommand Phase = iota
	PhaseWait
	PhaseRefresh
	PhaseRefreshed
)

func (p Phase) String() string {
	switch p {
	case PhaseCommand:
		return "command"
	case PhaseWait:
		return "wait"
	case PhaseRefresh:
		return "refresh"
	case PhaseRefreshed:
		return "refreshed"
	default:
		return ""
	}
}

func commandUpdate(action Action, arg string) Update {
	msg := fmt.Sprintf("Sending %s...", action)
	if arg != "" {
		msg = fmt.Sprintf("Sending %s (%s)...", action, arg)
	}
	return Update{Phase: PhaseCommand, Action: action, Message: msg}
}

func waitUpdate(action Action) Update {
	return Update{Phase: PhaseWait, Action: action, Message: "Waiting for the player to switch tracks..."}
}

func refreshUpdate(action Action) Update {
	return Update{Phase: PhaseRefresh, Action: action, Message: "Refreshing playback..."}
}

func refreshedUpdate(action Action, pb *models.Playback) Update {
	msg := "Nothing is playing."
	if pb != nil {
		msg = fmt.Sprintf("Now playing %s by %s", pb.Track.Name, pb.Track.ArtistNames())
	}
	return Update{Phase: PhaseRefreshed, Action: action, Message: msg, Playback: pb}
}

// send delivers u without blocking. A nil channel drops it.
func send(progress chan<- Update, u Update) {
	if progress == nil {
		return
	}
	select {
	case progress <- u:
	default:
	}
}
