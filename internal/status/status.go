// Package status composes the session, presence and lock views that clients poll.
package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/internal/locks"
	"github.com/promptshare/promptshare/backend/go-services/internal/models"
	"github.com/promptshare/promptshare/backend/go-services/internal/sessions"
	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
)

// LockedSection is a live lock as shown to clients.
type LockedSection struct {
	Range     [2]int    `json:"range"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	UserName  string    `json:"userName"`
}

// Status is the polled collaboration view of a document.
type Status struct {
	SessionID      *string                 `json:"sessionId"`
	IsActive       bool                    `json:"isActive"`
	Collaborators  []sessions.Collaborator `json:"collaborators"`
	LockedSections []LockedSection         `json:"lockedSections"`
}

// Aggregator is read-only apart from the lazy eviction of stale participants
// and expired locks.
type Aggregator struct {
	sessions  sessions.Repository
	presence  *sessions.Presence
	locks     *locks.Manager
	directory sessions.Directory
	now       func() time.Time
}

func NewAggregator(repo sessions.Repository, presence *sessions.Presence, lm *locks.Manager, dir sessions.Directory) *Aggregator {
	return &Aggregator{
		sessions:  repo,
		presence:  presence,
		locks:     lm,
		directory: dir,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

func unavailable(op string, err error) error {
	logger.Errorf("status: %s: %v", op, err)
	return fmt.Errorf("%w: %s: %v", apperr.ErrStatusUnavailable, op, err)
}

// GetStatus returns the document's active session with its live
// collaborators and locks. The participant and lock evictions are
// independent writes; a failure between them leaves the first applied.
func (a *Aggregator) GetStatus(ctx context.Context, documentID string) (*Status, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.Validation("documentId is required")
	}
	sess, err := a.sessions.ActiveSession(ctx, documentID)
	if err != nil {
		return nil, unavailable("load session", err)
	}
	if sess == nil {
		return &Status{Collaborators: []sessions.Collaborator{}, LockedSections: []LockedSection{}}, nil
	}

	now := a.now()
	live, err := a.presence.Live(ctx, sess.ID, now)
	if err != nil {
		return nil, unavailable("load participants", err)
	}
	held, err := a.locks.LiveLocks(ctx, sess.ID, now)
	if err != nil {
		return nil, unavailable("load locks", err)
	}

	ids := make([]string, 0, len(live)+len(held))
	for _, p := range live {
		ids = append(ids, p.UserID)
	}
	for _, l := range held {
		ids = append(ids, l.OwnerID)
	}
	users := map[string]*models.User{}
	if a.directory != nil && len(ids) > 0 {
		if users, err = a.directory.Lookup(ctx, ids); err != nil {
			return nil, unavailable("resolve users", err)
		}
	}

	collaborators, err := sessions.Label(ctx, resolved(users), live)
	if err != nil {
		return nil, unavailable("label participants", err)
	}
	sections := make([]LockedSection, 0, len(held))
	for _, l := range held {
		sections = append(sections, LockedSection{
			Range:     [2]int{l.Start, l.End},
			UserID:    l.OwnerID,
			Timestamp: l.CreatedAt,
			UserName:  models.DisplayName(users[l.OwnerID], l.OwnerID),
		})
	}

	id := sess.ID
	return &Status{
		SessionID:      &id,
		IsActive:       true,
		Collaborators:  collaborators,
		LockedSections: sections,
	}, nil
}

// resolved serves an already fetched user map as a Directory.
type resolved map[string]*models.User

func (r resolved) Lookup(_ context.Context, ids []string) (map[string]*models.User, error) {
	return r, nil
}
