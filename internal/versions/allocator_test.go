package versions

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	docrepo "github.com/promptshare/promptshare/backend/go-services/internal/document/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisAllocator_SeedsFromHistory(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	repo := NewMemoryRepo()
	require.NoError(t, repo.Insert(ctx, &Version{ID: "a", DocumentID: "doc", VersionNumber: 4}))

	a := NewRedisAllocator(rdb, repo, "")
	n, err := a.Next(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, 5, n)
	n, err = a.Next(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, 6, n)

	v, err := mr.Get("collab:version:doc")
	require.NoError(t, err)
	require.Equal(t, "6", v)

	// flushed counter never goes below history
	mr.FlushAll()
	n, err = a.Next(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestRedisAllocator_WithService(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	repo := NewMemoryRepo()
	a := NewRedisAllocator(rdb, repo, "test:")
	for want := 1; want <= 3; want++ {
		n, err := a.Next(ctx, "fresh")
		require.NoError(t, err)
		require.Equal(t, want, n)
	}
}

func TestRedisAllocator_ResyncNeverLowersCounter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	repo := NewMemoryRepo()
	require.NoError(t, repo.Insert(ctx, &Version{ID: "a", DocumentID: "doc", VersionNumber: 3}))
	a := NewRedisAllocator(rdb, repo, "")

	require.NoError(t, mr.Set("collab:version:doc", "1"))
	require.NoError(t, a.Resync(ctx, "doc"))
	v, err := mr.Get("collab:version:doc")
	require.NoError(t, err)
	require.Equal(t, "3", v)

	require.NoError(t, mr.Set("collab:version:doc", "10"))
	require.NoError(t, a.Resync(ctx, "doc"))
	v, err = mr.Get("collab:version:doc")
	require.NoError(t, err)
	require.Equal(t, "10", v)
}

func TestSave_RecoversFromLaggingRedisCounter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	docs := docrepo.NewMemoryRepo()
	repo := NewMemoryRepo()
	d := newDoc(t, docs, "alice", "")

	// counter exists but history grew without it (Redis was down)
	require.NoError(t, mr.Set("collab:version:"+d.ID, "1"))
	fallback := NewService(repo, docs)
	for i := 0; i < 8; i++ {
		_, err := fallback.Save(ctx, SaveInput{DocumentID: d.ID, ActorID: "alice", Content: "v"})
		require.NoError(t, err)
	}

	svc := NewService(repo, docs, WithAllocator(NewRedisAllocator(rdb, repo, "")))
	v, err := svc.Save(ctx, SaveInput{DocumentID: d.ID, ActorID: "alice", Content: "back online"})
	require.NoError(t, err)
	require.Equal(t, 9, v.VersionNumber)

	v, err = svc.Save(ctx, SaveInput{DocumentID: d.ID, ActorID: "alice", Content: "again"})
	require.NoError(t, err)
	require.Equal(t, 10, v.VersionNumber)
}

func TestMaxAllocator(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	a := NewMaxAllocator(repo)
	n, err := a.Next(ctx, "d")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, repo.Insert(ctx, &Version{ID: "x", DocumentID: "d", VersionNumber: 1}))
	n, err = a.Next(ctx, "d")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
