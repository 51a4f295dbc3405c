package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/promptshare/promptshare/backend/go-services/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Repository is the document store boundary used by the collaboration
// services: single-row reads and single-row atomic updates only.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context) ([]*document.Document, error)
	// ApplyVersion overwrites the versioned fields in one update and raises the
	// version counter to version; the counter never moves backwards when saves
	// finish out of order. Attachments and ownership are left untouched.
	ApplyVersion(ctx context.Context, id string, fields document.Fields, version int, at time.Time) (*document.Document, error)
}

// MemoryRepo is an in-memory repository used for development and unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(_ context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	m.store[doc.ID] = doc.Clone()
	return doc.ID, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0, len(m.store))
	for _, d := range m.store {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (m *MemoryRepo) ApplyVersion(_ context.Context, id string, fields document.Fields, version int, at time.Time) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Fields = fields.Clone()
	if version > d.Version {
		d.Version = version
	}
	d.UpdatedAt = at
	return d.Clone(), nil
}
