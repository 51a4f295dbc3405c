package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/internal/document"
	"github.com/promptshare/promptshare/backend/go-services/internal/document/service"
	"github.com/promptshare/promptshare/backend/go-services/pkg/middleware"
)

// RegisterDocumentRoutes mounts the document store boundary: create, get and
// list. requireAuth must set the actor; optionalAuth lets anonymous readers
// through for public prompts. afterAuth runs after either of them.
func RegisterDocumentRoutes(r gin.IRouter, svc service.Service, requireAuth, optionalAuth gin.HandlerFunc, afterAuth ...gin.HandlerFunc) {
	withAuth := func(auth, final gin.HandlerFunc) gin.HandlersChain {
		out := make(gin.HandlersChain, 0, len(afterAuth)+2)
		out = append(out, auth)
		out = append(out, afterAuth...)
		return append(out, final)
	}

	r.GET("/api/documents", withAuth(optionalAuth, func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		actor := middleware.ActorID(c)
		out := make([]gin.H, 0, len(list))
		for _, d := range list {
			if !d.ReadableBy(actor) {
				continue
			}
			out = append(out, gin.H{"id": d.ID, "title": d.Title, "version": d.Version, "isPublic": d.IsPublic, "updatedAt": d.UpdatedAt})
		}
		c.JSON(http.StatusOK, out)
	})...)

	r.POST("/api/documents", withAuth(requireAuth, func(c *gin.Context) {
		var req struct {
			Title       string                `json:"title"`
			Content     string                `json:"content"`
			Description string                `json:"description"`
			Tags        []string              `json:"tags"`
			Category    string                `json:"category"`
			IsPublic    bool                  `json:"isPublic"`
			Attachments []document.Attachment `json:"attachments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d, err := svc.Create(c.Request.Context(), service.CreateInput{
			OwnerID:  middleware.ActorID(c),
			IsPublic: req.IsPublic,
			Fields: document.Fields{
				Title:       req.Title,
				Content:     req.Content,
				Description: req.Description,
				Tags:        req.Tags,
				Category:    req.Category,
			},
			Attachments: req.Attachments,
		})
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	})...)

	r.GET("/api/documents/:id", withAuth(optionalAuth, func(c *gin.Context) {
		d, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		switch actor := middleware.ActorID(c); {
		case d.ReadableBy(actor):
			c.JSON(http.StatusOK, d)
		case actor == "":
			middleware.AbortWithError(c, apperr.ErrUnauthorized)
		default:
			middleware.AbortWithError(c, apperr.Forbidden("document is private"))
		}
	})...)
}
