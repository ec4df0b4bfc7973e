package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/spotwidget/internal/models"
	"github.com/desertthunder/spotwidget/internal/services"
	"golang.org/x/sync/singleflight"
)

const playbackKey = "playback"

// RefreshTimeout bounds a shared playback read. The read outlives any single caller's context.
const RefreshTimeout = 15 * time.Second

// Sequencer hands out increasing tickets and remembers the newest one applied.
type Sequencer struct {
	next    atomic.Uint64
	applied atomic.Uint64
}

// Ticket returns the next ticket.
func (s *Sequencer) Ticket() uint64 {
	return s.next.Add(1)
}

// Apply marks ticket as applied and reports true, unless a newer or equal ticket was applied already.
func (s *Sequencer) Apply(ticket uint64) bool {
	for {
		current := s.applied.Load()
		if ticket <= current {
			return false
		}
		if s.applied.CompareAndSwap(current, ticket) {
			return true
		}
	}
}

// Refresher reads the current playback with request coalescing and stale-response suppression.
type Refresher struct {
	svc   services.Service
	group singleflight.Group
	seq   Sequencer

	mu     sync.RWMutex
	latest *models.Playback
}

// NewRefresher creates a [Refresher] reading from svc.
func NewRefresher(svc services.Service) *Refresher {
	return &Refresher{svc: svc}
}

// Refresh fetches the playback. stale reports that a newer refresh already applied its result, in which case
// that newer playback is returned instead.
//
// Callers joining a read in flight share its result. Cancelling ctx only abandons this caller's wait.
func (r *Refresher) Refresh(ctx context.Context) (pb *models.Playback, stale bool, err error) {
	ticket := r.seq.Ticket()

	ch := r.group.DoChan(playbackKey, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RefreshTimeout)
		defer cancel()
		return r.svc.CurrentPlayback(readCtx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	if res.Err != nil {
		return nil, false, res.Err
	}
	pb, _ = res.Val.(*models.Playback)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seq.Apply(ticket) {
		return r.latest, true, nil
	}
	r.latest = pb
	return pb, false, nil
}

// Invalidate makes the next [Refresher.Refresh] start a new request instead of joining one in flight.
func (r *Refresher) Invalidate() {
	r.group.Forget(playbackKey)
}

// Latest returns the most recently applied playback, or nil.
func (r *Refresher) Latest() *models.Playback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}
