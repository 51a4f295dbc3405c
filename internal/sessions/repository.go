package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists sessions and their participants.
type Repository interface {
	// FindOrCreateActive returns the document's active session, creating it
	// when there is none. created reports whether this call inserted it.
	FindOrCreateActive(ctx context.Context, documentID, createdBy string, at time.Time) (s *Session, created bool, err error)
	// ActiveSession returns nil when the document has no active session.
	ActiveSession(ctx context.Context, documentID string) (*Session, error)
	TouchActivity(ctx context.Context, sessionID string, at time.Time) error
	// UpsertParticipant sets JoinedAt only on insert and always refreshes
	// LastSeen and IsActive. A nil cursor keeps the stored one.
	UpsertParticipant(ctx context.Context, sessionID, userID string, cursor *int, at time.Time) (*Participant, error)
	ActiveParticipants(ctx context.Context, sessionID string) ([]*Participant, error)
	// DeactivateStale marks the given participants inactive if their LastSeen
	// is still before cutoff, and returns how many rows changed.
	DeactivateStale(ctx context.Context, ids []string, cutoff time.Time) (int, error)
}

type participantKey struct{ session, user string }

// MemoryRepository is an in-process Repository for development and tests.
type MemoryRepository struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	participants map[participantKey]*Participant
	byID         map[string]*Participant
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions:     map[string]*Session{},
		participants: map[participantKey]*Participant{},
		byID:         map[string]*Participant{},
	}
}

func (m *MemoryRepository) activeLocked(documentID string) *Session {
	for _, s := range m.sessions {
		if s.DocumentID == documentID && s.IsActive {
			return s
		}
	}
	return nil
}

func (m *MemoryRepository) FindOrCreateActive(_ context.Context, documentID, createdBy string, at time.Time) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.activeLocked(documentID); s != nil {
		out := *s
		return &out, false, nil
	}
	s := &Session{
		ID:           uuid.NewString(),
		DocumentID:   documentID,
		CreatedBy:    createdBy,
		CreatedAt:    at,
		LastActivity: at,
		IsActive:     true,
	}
	m.sessions[s.ID] = s
	out := *s
	return &out, true, nil
}

func (m *MemoryRepository) ActiveSession(_ context.Context, documentID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.activeLocked(documentID)
	if s == nil {
		return nil, nil
	}
	out := *s
	return &out, nil
}

func (m *MemoryRepository) TouchActivity(_ context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.LastActivity = at
	}
	return nil
}

func (m *MemoryRepository) UpsertParticipant(_ context.Context, sessionID, userID string, cursor *int, at time.Time) (*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := participantKey{sessionID, userID}
	p, ok := m.participants[key]
	if !ok {
		p = &Participant{ID: uuid.NewString(), SessionID: sessionID, UserID: userID, JoinedAt: at}
		m.participants[key] = p
		m.byID[p.ID] = p
	}
	p.LastSeen = at
	p.IsActive = true
	if cursor != nil {
		c := *cursor
		p.Cursor = &c
	}
	return p.clone(), nil
}

func (m *MemoryRepository) ActiveParticipants(_ context.Context, sessionID string) ([]*Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Participant
	for k, p := range m.participants {
		if k.session == sessionID && p.IsActive {
			out = append(out, p.clone())
		}
	}
	return out, nil
}

func (m *MemoryRepository) DeactivateStale(_ context.Context, ids []string, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		p, ok := m.byID[id]
		if ok && p.IsActive && p.LastSeen.Before(cutoff) {
			p.IsActive = false
			n++
		}
	}
	return n, nil
}

// SetLastSeen rewinds a participant's heartbeat; tests use it to simulate idle users.
func (m *MemoryRepository) SetLastSeen(sessionID, userID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[participantKey{sessionID, userID}]; ok {
		p.LastSeen = at
	}
}
