package sessions

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/internal/document"
	docrepo "github.com/promptshare/promptshare/backend/go-services/internal/document/repository"
	"github.com/promptshare/promptshare/backend/go-services/internal/models"
	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
	"github.com/promptshare/promptshare/backend/go-services/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// DocumentReader is the document store lookup Join needs.
type DocumentReader interface {
	Get(ctx context.Context, id string) (*document.Document, error)
}

// Directory resolves actor ids to users.
type Directory interface {
	Lookup(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Service wraps repository operations with business logic
type Service struct {
	repo      Repository
	docs      DocumentReader
	directory Directory
	now       func() time.Time
}

func NewService(r Repository, docs DocumentReader, dir Directory) *Service {
	return &Service{repo: r, docs: docs, directory: dir, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Join attaches actorID to the document's active session, creating the
// session on first use, and returns every active participant.
func (s *Service) Join(ctx context.Context, documentID, actorID string, cursor *int) (*JoinResult, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperr.Validation("documentId is required")
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, apperr.ErrUnauthorized
	}
	if cursor != nil && *cursor < 0 {
		return nil, apperr.Validation("cursor must not be negative")
	}
	if _, err := s.docs.Get(ctx, documentID); err != nil {
		if errors.Is(err, docrepo.ErrNotFound) || errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("document " + documentID)
		}
		return nil, apperr.Infra("load document", err)
	}

	now := s.now()
	sess, created, err := s.repo.FindOrCreateActive(ctx, documentID, actorID, now)
	if err != nil {
		return nil, apperr.Infra("find or create session", err)
	}
	if _, err := s.repo.UpsertParticipant(ctx, sess.ID, actorID, cursor, now); err != nil {
		return nil, apperr.Infra("upsert participant", err)
	}
	if err := s.repo.TouchActivity(ctx, sess.ID, now); err != nil {
		return nil, apperr.Infra("touch session", err)
	}
	sess.LastActivity = now

	active, err := s.repo.ActiveParticipants(ctx, sess.ID)
	if err != nil {
		return nil, apperr.Infra("list participants", err)
	}
	collaborators, err := Label(ctx, s.directory, active)
	if err != nil {
		return nil, apperr.Infra("resolve participants", err)
	}

	outcome := "reused"
	if created {
		outcome = "created"
	}
	metrics.SessionJoins.WithLabelValues(outcome).Inc()
	logger.WithFields(logrus.Fields{
		"document_id": documentID,
		"session_id":  sess.ID,
		"actor_id":    actorID,
		"session":     outcome,
	}).Debug("collab join")

	return &JoinResult{Session: sess, Collaborators: collaborators, Created: created}, nil
}

// Label resolves participants to display entries, ordered by user id.
// A nil directory labels everyone by their id.
func Label(ctx context.Context, dir Directory, ps []*Participant) ([]Collaborator, error) {
	users := map[string]*models.User{}
	if dir != nil && len(ps) > 0 {
		ids := make([]string, len(ps))
		for i, p := range ps {
			ids[i] = p.UserID
		}
		var err error
		if users, err = dir.Lookup(ctx, ids); err != nil {
			return nil, err
		}
	}
	out := make([]Collaborator, 0, len(ps))
	for _, p := range ps {
		c := Collaborator{
			ID:       p.UserID,
			Name:     models.DisplayName(users[p.UserID], p.UserID),
			LastSeen: p.LastSeen,
			Cursor:   p.Cursor,
			IsActive: p.IsActive,
		}
		if u := users[p.UserID]; u != nil {
			c.Email = u.Email
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ActiveSession returns the document's active session or NotFound.
func (s *Service) ActiveSession(ctx context.Context, documentID string) (*Session, error) {
	sess, err := s.repo.ActiveSession(ctx, documentID)
	if err != nil {
		return nil, apperr.Infra("load session", err)
	}
	if sess == nil {
		return nil, apperr.NotFound("active session for document " + documentID)
	}
	return sess, nil
}
