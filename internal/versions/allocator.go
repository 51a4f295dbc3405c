package versions

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Allocator hands out candidate version numbers. A candidate may still lose
// to a concurrent writer; the unique constraint in the Repository is the
// final arbiter and the service retries with a fresh candidate.
type Allocator interface {
	Next(ctx context.Context, documentID string) (int, error)
}

// Resyncer is implemented by allocators that keep their own counter and can
// fall behind the stored history. The service calls Resync after a candidate
// collides with an existing version.
type Resyncer interface {
	Resync(ctx context.Context, documentID string) error
}

// MaxAllocator reads the stored maximum and proposes the next number.
type MaxAllocator struct {
	repo Repository
}

func NewMaxAllocator(repo Repository) *MaxAllocator {
	return &MaxAllocator{repo: repo}
}

func (a *MaxAllocator) Next(ctx context.Context, documentID string) (int, error) {
	highest, err := a.repo.MaxNumber(ctx, documentID)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// RedisAllocator keeps one counter per document and increments it atomically.
// A missing counter (first use, or after a Redis flush) is seeded from the
// stored maximum with SETNX so it never hands out a number below history.
type RedisAllocator struct {
	client *redis.Client
	repo   Repository
	prefix string
}

func NewRedisAllocator(client *redis.Client, repo Repository, prefix string) *RedisAllocator {
	if prefix == "" {
		prefix = "collab:version:"
	}
	return &RedisAllocator{client: client, repo: repo, prefix: prefix}
}

func (a *RedisAllocator) key(documentID string) string {
	return a.prefix + documentID
}

// raiseScript sets KEYS[1] to ARGV[1] unless the counter is already higher.
var raiseScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
  redis.call('SET', KEYS[1], floor)
  return floor
end
return cur
`)

// Resync lifts the counter to at least the stored maximum. A counter can lag
// when versions were written while Redis was unreachable or after Redis was
// restored from an older snapshot.
func (a *RedisAllocator) Resync(ctx context.Context, documentID string) error {
	highest, err := a.repo.MaxNumber(ctx, documentID)
	if err != nil {
		return err
	}
	key := a.key(documentID)
	if err := raiseScript.Run(ctx, a.client, []string{key}, highest).Err(); err != nil {
		return fmt.Errorf("redis: resync version counter %s: %w", key, err)
	}
	return nil
}

func (a *RedisAllocator) Next(ctx context.Context, documentID string) (int, error) {
	key := a.key(documentID)
	exists, err := a.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: check version counter %s: %w", key, err)
	}
	if exists == 0 {
		highest, err := a.repo.MaxNumber(ctx, documentID)
		if err != nil {
			return 0, err
		}
		if err := a.client.SetNX(ctx, key, highest, 0).Err(); err != nil {
			return 0, fmt.Errorf("redis: seed version counter %s: %w", key, err)
		}
	}
	n, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: increment version counter %s: %w", key, err)
	}
	return int(n), nil
}
