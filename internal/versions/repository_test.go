package versions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRepo_UniqueNumberPerDocument(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	require.NoError(t, r.Insert(ctx, &Version{ID: "a", DocumentID: "d1", VersionNumber: 1}))
	require.ErrorIs(t, r.Insert(ctx, &Version{ID: "b", DocumentID: "d1", VersionNumber: 1}), ErrDuplicateVersion)
	// same number on another document is fine
	require.NoError(t, r.Insert(ctx, &Version{ID: "c", DocumentID: "d2", VersionNumber: 1}))
}

func TestMemoryRepo_OrderingAndBefore(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	for _, n := range []int{3, 1, 5} {
		require.NoError(t, r.Insert(ctx, &Version{ID: string(rune('a' + n)), DocumentID: "d", VersionNumber: n}))
	}

	highest, err := r.MaxNumber(ctx, "d")
	require.NoError(t, err)
	require.Equal(t, 5, highest)

	prev, err := r.Before(ctx, "d", 5)
	require.NoError(t, err)
	require.Equal(t, 3, prev.VersionNumber)

	prev, err = r.Before(ctx, "d", 1)
	require.NoError(t, err)
	require.Nil(t, prev)

	list, err := r.ListByDocument(ctx, "d")
	require.NoError(t, err)
	require.Equal(t, []int{5, 3, 1}, []int{list[0].VersionNumber, list[1].VersionNumber, list[2].VersionNumber})

	empty, err := r.ListByDocument(ctx, "none")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	v := &Version{ID: "a", DocumentID: "d", VersionNumber: 1}
	v.Snapshot.Tags = []string{"x"}
	require.NoError(t, r.Insert(ctx, v))
	v.Snapshot.Tags[0] = "mutated"

	got, err := r.GetByID(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "x", got.Snapshot.Tags[0])

	_, err = r.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
