package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "promptshare_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "mongodb://localhost:27017/testdb", cfg.MongoDB.URI)
	require.Equal(t, "promptshare_test", cfg.MongoDB.Database)
	require.Equal(t, "localhost", cfg.Redis.Host)
	require.Equal(t, 5*time.Minute, cfg.Collab.LivenessWindow)
	require.Equal(t, 10*time.Minute, cfg.Collab.LockTTL)
	require.Equal(t, 5, cfg.Collab.VersionRetries)
}

func TestLoadConfig_CollabOverrides(t *testing.T) {
	t.Setenv("COLLAB_LIVENESS_WINDOW_SECONDS", "60")
	t.Setenv("COLLAB_LOCK_TTL_SECONDS", "120")
	t.Setenv("COLLAB_VERSION_RETRIES", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, time.Minute, cfg.Collab.LivenessWindow)
	require.Equal(t, 2*time.Minute, cfg.Collab.LockTTL)
	require.Equal(t, 1, cfg.Collab.VersionRetries)
}

func TestLoadConfig_RejectsNonPositiveWindow(t *testing.T) {
	t.Setenv("COLLAB_LIVENESS_WINDOW_SECONDS", "0")
	_, err := LoadConfig()
	require.Error(t, err)
}
