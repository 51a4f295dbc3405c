package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptshare/promptshare/backend/go-services/internal/apperr"
	"github.com/promptshare/promptshare/backend/go-services/pkg/logger"
	"github.com/sirupsen/logrus"
)

// AbortWithError writes the client-safe form of err. Server-side failures are
// logged with their cause; the response only carries a generic message.
func AbortWithError(c *gin.Context, err error) {
	status, msg := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"actor":  ActorID(c),
		}).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
