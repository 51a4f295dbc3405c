// Package handler exposes collaboration and version history over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/internal/document"
	"github.com/promptshare/promptshare/backend/go-services/internal/locks"
	"github.com/promptshare/promptshare/backend/go-services/internal/models"
	"github.com/promptshare/promptshare/backend/go-services/internal/sessions"
	"github.com/promptshare/promptshare/backend/go-services/internal/status"
	"github.com/promptshare/promptshare/backend/go-services/internal/versions"
	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
	"github.com/promptshare/promptshare/backend/go-services/pkg/middleware"
)

const archiveURLExpiry = 15 * time.Minute

// Documents is the document lookup the handler needs for access checks.
type Documents interface {
	Get(ctx context.Context, id string) (*document.Document, error)
}

// Handler wires the collaboration services to gin.
type Handler struct {
	Docs     Documents
	Sessions *sessions.Service
	Status   *status.Aggregator
	Locks    *locks.Manager
	Versions *versions.Service
	// Profiles is optional; when set, authenticated callers are upserted so
	// other participants see their name.
	Profiles ClaimsUpserter
}

// ClaimsUpserter is satisfied by *users.Service.
type ClaimsUpserter interface {
	UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error)
}

// Register mounts the routes under /api/documents/:id. afterAuth runs right
// after token verification on every route (the rate limiter goes there so it
// can key on the actor).
func (h *Handler) Register(r gin.IRouter, requireAuth, optionalAuth gin.HandlerFunc, afterAuth ...gin.HandlerFunc) {
	g := r.Group("/api/documents/:id")

	authed := func(final gin.HandlerFunc) gin.HandlersChain {
		return chain(requireAuth, afterAuth, h.syncProfile, final)
	}
	anyone := func(final gin.HandlerFunc) gin.HandlersChain {
		return chain(optionalAuth, afterAuth, final)
	}
	g.POST("/collab/join", authed(h.join)...)
	g.GET("/collab/status", anyone(h.status)...)
	g.POST("/collab/locks", authed(h.acquireLock)...)

	g.POST("/versions", authed(h.saveVersion)...)
	g.GET("/versions", anyone(h.listVersions)...)
	g.GET("/versions/:versionId", anyone(h.getVersion)...)
	g.GET("/versions/:versionId/archive", anyone(h.archiveURL)...)
	g.POST("/versions/:versionId/revert", authed(h.revert)...)
}

// chain builds a fresh handler slice per route.
func chain(auth gin.HandlerFunc, mid []gin.HandlerFunc, rest ...gin.HandlerFunc) gin.HandlersChain {
	out := make(gin.HandlersChain, 0, 1+len(mid)+len(rest))
	out = append(out, auth)
	out = append(out, mid...)
	return append(out, rest...)
}

func (h *Handler) syncProfile(c *gin.Context) {
	if h.Profiles != nil {
		if claims := middleware.Claims(c); claims != nil {
			if _, err := h.Profiles.UpsertFromClaims(c.Request.Context(), claims); err != nil {
				logger.Warnf("profile sync for %s: %v", middleware.ActorID(c), err)
			}
		}
	}
	c.Next()
}

// readable loads the document and checks the caller may see it. Anonymous
// callers on a private document get 401, signed-in strangers 403.
func (h *Handler) readable(c *gin.Context) (*document.Document, bool) {
	d, err := h.Docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return nil, false
	}
	actor := middleware.ActorID(c)
	if !d.ReadableBy(actor) {
		if actor == "" {
			middleware.AbortWithError(c, apperr.ErrUnauthorized)
		} else {
			middleware.AbortWithError(c, apperr.Forbidden("document is private"))
		}
		return nil, false
	}
	return d, true
}

func (h *Handler) join(c *gin.Context) {
	d, ok := h.readable(c)
	if !ok {
		return
	}
	var req struct {
		Cursor *int `json:"cursor"`
	}
	// the body is optional; chunked requests carry no ContentLength
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	res, err := h.Sessions.Join(c.Request.Context(), d.ID, middleware.ActorID(c), req.Cursor)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) status(c *gin.Context) {
	d, ok := h.readable(c)
	if !ok {
		return
	}
	st, err := h.Status.GetStatus(c.Request.Context(), d.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) acquireLock(c *gin.Context) {
	d, ok := h.readable(c)
	if !ok {
		return
	}
	var req struct {
		Range *[2]int `json:"range"`
		Start *int    `json:"start"`
		End   *int    `json:"end"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var start, end int
	switch {
	case req.Range != nil:
		start, end = req.Range[0], req.Range[1]
	case req.Start != nil && req.End != nil:
		start, end = *req.Start, *req.End
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "range is required"})
		return
	}
	sess, err := h.Sessions.ActiveSession(c.Request.Context(), d.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	l, err := h.Locks.Acquire(c.Request.Context(), locks.AcquireInput{
		SessionID:  sess.ID,
		DocumentID: d.ID,
		OwnerID:    middleware.ActorID(c),
		Start:      start,
		End:        end,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lock": l})
}

func (h *Handler) saveVersion(c *gin.Context) {
	d, ok := h.readable(c)
	if !ok {
		return
	}
	var req struct {
		Content     *string  `json:"content"`
		Message     string   `json:"message"`
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Tags        []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	v, err := h.Versions.Save(c.Request.Context(), versions.SaveInput{
		DocumentID:  d.ID,
		ActorID:     middleware.ActorID(c),
		Content:     *req.Content,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Message:     req.Message,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": versionView(v)})
}

func (h *Handler) listVersions(c *gin.Context) {
	d, ok := h.readable(c)
	if !ok {
		return
	}
	list, err := h.Versions.List(c.Request.Context(), d.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, v := range list {
		out = append(out, versionView(v))
	}
	c.JSON(http.StatusOK, gin.H{"versions": out})
}

func (h *Handler) getVersion(c *gin.Context) {
	d, ok := h.readable(c)
	if !ok {
		return
	}
	v, err := h.Versions.Get(c.Request.Context(), d.ID, c.Param("versionId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": versionView(v)})
}

func (h *Handler) archiveURL(c *gin.Context) {
	d, ok := h.readable(c)
	if !ok {
		return
	}
	u, err := h.Versions.ArchiveURL(c.Request.Context(), d.ID, c.Param("versionId"), archiveURLExpiry)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "expiresIn": int(archiveURLExpiry.Seconds())})
}

func (h *Handler) revert(c *gin.Context) {
	res, err := h.Versions.Revert(c.Request.Context(), c.Param("id"), middleware.ActorID(c), c.Param("versionId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document":            res.Document,
		"backup":              versionView(res.Backup),
		"previousVersion":     res.PreviousVersion,
		"newVersion":          res.NewVersion,
		"revertedFromVersion": res.RevertedFromVersion,
	})
}

func versionView(v *versions.Version) gin.H {
	out := gin.H{
		"id":             v.ID,
		"versionNumber":  v.VersionNumber,
		"content":        v.Snapshot.Content,
		"snapshot":       v.Snapshot,
		"timestamp":      v.CreatedAt,
		"author":         gin.H{"id": v.AuthorID, "name": v.AuthorName},
		"message":        v.Message,
		"changesSummary": v.ChangesSummary,
		"kind":           v.Kind,
	}
	if v.RevertedFrom > 0 {
		out["revertedFrom"] = v.RevertedFrom
	}
	return out
}
