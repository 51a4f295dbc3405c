package versions

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound         = errors.New("version not found")
	ErrDuplicateVersion = errors.New("version number already used for document")
)

// Repository is the append-only version log. Implementations must reject a
// second row with the same (DocumentID, VersionNumber) with ErrDuplicateVersion
// and never modify a stored row.
type Repository interface {
	Insert(ctx context.Context, v *Version) error
	// MaxNumber returns the highest version number of the document, 0 when none.
	MaxNumber(ctx context.Context, documentID string) (int, error)
	// Before returns the highest version numbered below n, or nil when none.
	Before(ctx context.Context, documentID string, n int) (*Version, error)
	GetByID(ctx context.Context, id string) (*Version, error)
	// ListByDocument returns versions newest first.
	ListByDocument(ctx context.Context, documentID string) ([]*Version, error)
}

// MemoryRepo keeps versions in process; used in development and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Version
	byDoc map[string][]*Version // sorted by VersionNumber ascending
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]*Version{}, byDoc: map[string][]*Version{}}
}

func (m *MemoryRepo) Insert(_ context.Context, v *Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byDoc[v.DocumentID]
	i := sort.Search(len(list), func(i int) bool { return list[i].VersionNumber >= v.VersionNumber })
	if i < len(list) && list[i].VersionNumber == v.VersionNumber {
		return ErrDuplicateVersion
	}
	stored := v.clone()
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = stored
	m.byDoc[v.DocumentID] = list
	m.byID[v.ID] = stored
	return nil
}

func (m *MemoryRepo) MaxNumber(_ context.Context, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byDoc[documentID]
	if len(list) == 0 {
		return 0, nil
	}
	return list[len(list)-1].VersionNumber, nil
}

func (m *MemoryRepo) Before(_ context.Context, documentID string, n int) (*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byDoc[documentID]
	i := sort.Search(len(list), func(i int) bool { return list[i].VersionNumber >= n })
	if i == 0 {
		return nil, nil
	}
	return list[i-1].clone(), nil
}

func (m *MemoryRepo) GetByID(_ context.Context, id string) (*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v.clone(), nil
}

func (m *MemoryRepo) ListByDocument(_ context.Context, documentID string) ([]*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byDoc[documentID]
	out := make([]*Version, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i].clone())
	}
	return out, nil
}
