package locks

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
	"github.com/promptshare/promptshare/backend/go-services/pkg/metrics"
)

// AcquireInput names the range an owner is about to edit.
type AcquireInput struct {
	SessionID  string
	DocumentID string
	OwnerID    string
	Start      int
	End        int
}

// Manager creates locks and evicts expired ones on read.
type Manager struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewManager(repo Repository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{repo: repo, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

func (m *Manager) TTL() time.Duration { return m.ttl }

// Acquire records a new lock. Overlapping ranges are accepted.
func (m *Manager) Acquire(ctx context.Context, in AcquireInput) (*Lock, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, apperr.Validation("sessionId is required")
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, apperr.ErrUnauthorized
	}
	if in.Start < 0 || in.End <= in.Start {
		return nil, apperr.Validation("invalid range [%d, %d)", in.Start, in.End)
	}
	l := &Lock{
		ID:         uuid.NewString(),
		SessionID:  in.SessionID,
		DocumentID: in.DocumentID,
		Start:      in.Start,
		End:        in.End,
		OwnerID:    in.OwnerID,
		CreatedAt:  m.now(),
		IsActive:   true,
	}
	if err := m.repo.Insert(ctx, l); err != nil {
		return nil, apperr.Infra("insert lock", err)
	}
	metrics.LocksAcquired.Inc()
	return l, nil
}

// Partition splits locks into live and expired at now.
func Partition(ls []*Lock, now time.Time, ttl time.Duration) (live, expired []*Lock) {
	for _, l := range ls {
		if l.Expired(now, ttl) {
			expired = append(expired, l)
		} else {
			live = append(live, l)
		}
	}
	return live, expired
}

// LiveLocks returns unexpired locks of the session ordered by range start and
// marks the expired ones inactive.
func (m *Manager) LiveLocks(ctx context.Context, sessionID string, now time.Time) ([]*Lock, error) {
	active, err := m.repo.ActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	live, expired := Partition(active, now, m.ttl)
	if len(expired) > 0 {
		ids := make([]string, len(expired))
		for i, l := range expired {
			ids[i] = l.ID
		}
		n, err := m.repo.DeactivateExpired(ctx, ids, now.Add(-m.ttl))
		if err != nil {
			return nil, err
		}
		if n > 0 {
			metrics.Evictions.WithLabelValues("lock").Add(float64(n))
			logger.Debugf("locks: expired %d lock(s) in session %s", n, sessionID)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].Start != live[j].Start {
			return live[i].Start < live[j].Start
		}
		return live[i].CreatedAt.Before(live[j].CreatedAt)
	})
	return live, nil
}
