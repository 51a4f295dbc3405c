package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/promptshare/promptshare/backend/go-services/handlers"
	collabhandler "github.com/promptshare/promptshare/backend/go-services/internal/collab/handler"
	"github.com/promptshare/promptshare/backend/go-services/internal/config"
	"github.com/promptshare/promptshare/backend/go-services/internal/database"
	dochandler "github.com/promptshare/promptshare/backend/go-services/internal/document/handler"
	docrepo "github.com/promptshare/promptshare/backend/go-services/internal/document/repository"
	docservice "github.com/promptshare/promptshare/backend/go-services/internal/document/service"
	"github.com/promptshare/promptshare/backend/go-services/internal/locks"
	"github.com/promptshare/promptshare/backend/go-services/internal/oidc"
	"github.com/promptshare/promptshare/backend/go-services/internal/sessions"
	"github.com/promptshare/promptshare/backend/go-services/internal/status"
	"github.com/promptshare/promptshare/backend/go-services/internal/storage"
	"github.com/promptshare/promptshare/backend/go-services/internal/tokens"
	"github.com/promptshare/promptshare/backend/go-services/internal/users"
	"github.com/promptshare/promptshare/backend/go-services/internal/versions"
	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
	"github.com/promptshare/promptshare/backend/go-services/pkg/metrics"
	"github.com/promptshare/promptshare/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

// stores groups the repositories of one backend (Mongo or memory).
type stores struct {
	docs     docrepo.Repository
	versions versions.Repository
	sessions sessions.Repository
	locks    locks.Repository
	users    users.UserRepository
	mongo    *mongo.Client
}

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v", cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})
	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	rdb := connectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}
	// Optional API rate limiter. It is mounted after token verification on the
	// API routes so authenticated callers get their own bucket; anonymous
	// callers share one per IP.
	var afterAuth []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			afterAuth = append(afterAuth, middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			afterAuth = append(afterAuth, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	verifier := buildVerifier(ctx, cfg)
	st := openStores(ctx, cfg)
	if st.mongo != nil {
		defer func() { _ = st.mongo.Disconnect(context.Background()) }()
	}

	userSvc := users.NewService(st.users)
	docSvc := docservice.New(st.docs)

	versionOpts := []versions.Option{
		versions.WithDirectory(userSvc),
		versions.WithRetries(cfg.Collab.VersionRetries),
	}
	if rdb != nil {
		versionOpts = append(versionOpts, versions.WithAllocator(versions.NewRedisAllocator(rdb, st.versions, "")))
		logger.Infof("version numbers allocated through Redis counters")
	}
	if cfg.MinIO.Endpoint != "" {
		obj, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("version archive disabled: %v", err)
		} else {
			versionOpts = append(versionOpts, versions.WithArchiver(storage.NewVersionArchive(obj)))
			logger.Infof("archiving versions to MinIO bucket %s", cfg.MinIO.Bucket)
		}
	}

	lockMgr := locks.NewManager(st.locks, cfg.Collab.LockTTL)
	h := &collabhandler.Handler{
		Docs:     docSvc,
		Sessions: sessions.NewService(st.sessions, st.docs, userSvc),
		Status:   status.NewAggregator(st.sessions, sessions.NewPresence(st.sessions, cfg.Collab.LivenessWindow), lockMgr, userSvc),
		Locks:    lockMgr,
		Versions: versions.NewService(st.versions, st.docs, versionOpts...),
		Profiles: userSvc,
	}

	var requireAuth, optionalAuth gin.HandlerFunc
	if verifier != nil {
		requireAuth = middleware.AuthMiddleware(verifier)
		optionalAuth = middleware.OptionalAuthMiddleware(verifier)
	} else {
		logger.Warnf("no token verifier configured: authenticated routes will answer 401")
		requireAuth = middleware.AuthMiddleware(nil)
		optionalAuth = middleware.OptionalAuthMiddleware(nil)
	}
	h.Register(r, requireAuth, optionalAuth, afterAuth...)
	dochandler.RegisterDocumentRoutes(r, docSvc, requireAuth, optionalAuth, afterAuth...)
	handlers.RegisterSwagger(r)

	checks := map[string]handlers.Check{
		"storage": func(ctx context.Context) bool {
			return st.mongo == nil || st.mongo.Ping(ctx, nil) == nil
		},
		"auth": func(context.Context) bool { return verifier != nil || cfg.Keycloak.URL == "" },
	}
	if cfg.Redis.Host != "" {
		checks["redis"] = func(ctx context.Context) bool {
			return rdb != nil && rdb.Ping(ctx).Err() == nil
		}
	}
	handlers.RegisterHealth(r, startTime, checks)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting collaboration service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Host == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		_ = client.Close()
		return nil
	}
	logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
	return client
}

// buildVerifier chains every configured token source: Keycloak OIDC, the
// platform's HS256 secret, and the opt-in insecure parser for integration runs.
func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	var chain tokens.ChainVerifier
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		issuer := cfg.Keycloak.URL
		if cfg.Keycloak.Realm != "" {
			issuer = strings.TrimRight(cfg.Keycloak.URL, "/") + "/realms/" + cfg.Keycloak.Realm
		}
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			chain = append(chain, ver)
		}
	}
	if cfg.JWT.Secret != "" {
		chain = append(chain, tokens.NewHMACVerifier(cfg.JWT.Secret))
	}
	if strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN"))) == "true" {
		logger.Warn("enabling insecure token verifier (integration mode)")
		chain = append(chain, oidc.NewInsecureVerifier())
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

// openStores connects to MongoDB with retry/backoff and falls back to the
// in-memory repositories when it is not configured or unreachable.
func openStores(ctx context.Context, cfg *config.Config) *stores {
	mem := &stores{
		docs:     docrepo.NewMemoryRepo(),
		versions: versions.NewMemoryRepo(),
		sessions: sessions.NewMemoryRepository(),
		locks:    locks.NewMemoryRepository(),
		users:    users.NewMemoryUserRepository(),
	}
	if cfg.MongoDB.URI == "" {
		logger.Warnf("MONGODB_URI not set: using in-memory stores")
		return mem
	}

	// Retry/backoff when connecting to MongoDB to tolerate startup races
	client, errConn := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
	if errConn != nil {
		logger.Warnf("could not connect to MongoDB, using in-memory stores: %v", errConn)
		return mem
	}

	db := client.Database(cfg.MongoDB.Database)
	st := &stores{mongo: client, users: users.NewMongoUserRepository(db.Collection("users"))}
	if st.docs, errConn = docrepo.NewMongoRepo(ctx, db.Collection("documents")); errConn == nil {
		if st.versions, errConn = versions.NewMongoRepository(ctx, db.Collection("document_versions")); errConn == nil {
			if st.sessions, errConn = sessions.NewMongoRepository(ctx, db.Collection("collaborative_sessions"), db.Collection("session_participants")); errConn == nil {
				st.locks, errConn = locks.NewMongoRepository(ctx, db.Collection("document_locks"))
			}
		}
	}
	if errConn != nil {
		logger.Fatalf("failed to prepare MongoDB collections: %v", errConn)
	}
	logger.Infof("using MongoDB database %s", cfg.MongoDB.Database)
	return st
}
