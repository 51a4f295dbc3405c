package service

import (
	"context"
	"testing"

	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/internal/document"
	"github.com/stretchr/testify/require"
)

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	d, err := svc.Create(ctx, CreateInput{
		OwnerID:     "alice",
		Fields:      document.Fields{Content: "hello", Tags: []string{"poem"}},
		Attachments: []document.Attachment{{Name: "a.png"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)
	require.Equal(t, "untitled prompt", d.Title)
	require.Zero(t, d.Version)

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)
	require.Len(t, got.Attachments, 1)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	_, err := svc.Create(ctx, CreateInput{})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Get(ctx, "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
