package sessions

import (
	"context"
	"time"

	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
	"github.com/promptshare/promptshare/backend/go-services/pkg/metrics"
)

// DefaultLivenessWindow is how long a participant counts as present after its last heartbeat.
const DefaultLivenessWindow = 5 * time.Minute

// Partition splits participants into live (now-LastSeen <= window) and stale.
func Partition(ps []*Participant, now time.Time, window time.Duration) (live, stale []*Participant) {
	for _, p := range ps {
		if now.Sub(p.LastSeen) <= window {
			live = append(live, p)
		} else {
			stale = append(stale, p)
		}
	}
	return live, stale
}

// Presence evicts stale participants lazily while reading.
type Presence struct {
	repo   Repository
	window time.Duration
}

func NewPresence(repo Repository, window time.Duration) *Presence {
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &Presence{repo: repo, window: window}
}

func (p *Presence) Window() time.Duration { return p.window }

// Live returns the session's live participants and marks the stale ones
// inactive. Racing callers may both issue the eviction; the write only
// touches rows still past the cutoff.
func (p *Presence) Live(ctx context.Context, sessionID string, now time.Time) ([]*Participant, error) {
	active, err := p.repo.ActiveParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	live, stale := Partition(active, now, p.window)
	if len(stale) > 0 {
		ids := make([]string, len(stale))
		for i, s := range stale {
			ids[i] = s.ID
		}
		n, err := p.repo.DeactivateStale(ctx, ids, now.Add(-p.window))
		if err != nil {
			return nil, err
		}
		if n > 0 {
			metrics.Evictions.WithLabelValues("participant").Add(float64(n))
			logger.Debugf("presence: evicted %d stale participant(s) from session %s", n, sessionID)
		}
	}
	return live, nil
}
