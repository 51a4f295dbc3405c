package repository

import (
	"context"
	"testing"
	"time"

	"github.com/promptshare/promptshare/backend/go-services/internal/document"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCreateGetList(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := &document.Document{OwnerID: "alice", Fields: document.Fields{Title: "greeting", Content: "hello"}}
	id, err := r.Create(ctx, d)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)
	require.Equal(t, 0, got.Version)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoApplyVersionKeepsAttachments(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	d := &document.Document{
		OwnerID:     "alice",
		Fields:      document.Fields{Content: "hello", Tags: []string{"a"}},
		Attachments: []document.Attachment{{Name: "diagram.png", URL: "https://cdn/x.png"}},
	}
	id, err := r.Create(ctx, d)
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	updated, err := r.ApplyVersion(ctx, id, document.Fields{Content: "world", Category: "coding"}, 3, at)
	require.NoError(t, err)
	require.Equal(t, "world", updated.Content)
	require.Equal(t, "coding", updated.Category)
	require.Nil(t, updated.Tags)
	require.Equal(t, 3, updated.Version)
	require.Equal(t, at, updated.UpdatedAt)
	require.Len(t, updated.Attachments, 1)
	require.Equal(t, "alice", updated.OwnerID)

	_, err = r.ApplyVersion(ctx, "missing", document.Fields{}, 1, at)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoApplyVersionCounterNeverGoesBack(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id, err := r.Create(ctx, &document.Document{OwnerID: "alice"})
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	_, err = r.ApplyVersion(ctx, id, document.Fields{Content: "seven"}, 7, at)
	require.NoError(t, err)

	// an older save finishing late still wins on content
	updated, err := r.ApplyVersion(ctx, id, document.Fields{Content: "six"}, 6, at.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, "six", updated.Content)
	require.Equal(t, 7, updated.Version)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id, err := r.Create(ctx, &document.Document{Fields: document.Fields{Tags: []string{"x"}}})
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	got.Content = "mutated"

	again, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, again.Tags)
	require.Empty(t, again.Content)
}
