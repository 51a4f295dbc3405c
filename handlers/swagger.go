package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the collaboration service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>promptshare-collab - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the collaboration and version endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "promptshare-collab", "version": "v0.1.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } } },
  "paths": {
    "/api/documents": {
      "get": { "summary": "List readable documents", "responses": { "200": { "description": "documents" } } },
      "post": { "summary": "Create a document", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"},"description":{"type":"string"},"tags":{"type":"array","items":{"type":"string"}},"category":{"type":"string"},"isPublic":{"type":"boolean"}}}}}}, "responses": { "201": { "description": "created" }, "401": { "description": "unauthenticated" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "403": { "description": "private" }, "404": { "description": "not found" } } }
    },
    "/api/documents/{id}/collab/join": {
      "post": { "summary": "Join the document's collaborative session", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"cursor":{"type":"integer"}}}}}}, "responses": { "200": { "description": "session and active collaborators" }, "404": { "description": "document not found" } } }
    },
    "/api/documents/{id}/collab/status": {
      "get": { "summary": "Live collaborators and locked sections", "responses": { "200": { "description": "status" }, "500": { "description": "status unavailable" } } }
    },
    "/api/documents/{id}/collab/locks": {
      "post": { "summary": "Take an advisory range lock", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"range":{"type":"array","items":{"type":"integer"},"minItems":2,"maxItems":2}}}}}}, "responses": { "201": { "description": "lock" }, "400": { "description": "invalid range" }, "404": { "description": "no active session" } } }
    },
    "/api/documents/{id}/versions": {
      "get": { "summary": "List versions, newest first", "responses": { "200": { "description": "versions" } } },
      "post": { "summary": "Save a version", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["content"],"properties":{"content":{"type":"string"},"message":{"type":"string"}}}}}}, "responses": { "201": { "description": "version" }, "400": { "description": "content missing" } } }
    },
    "/api/documents/{id}/versions/{versionId}": {
      "get": { "summary": "Get one version", "responses": { "200": { "description": "version" }, "404": { "description": "not found" } } }
    },
    "/api/documents/{id}/versions/{versionId}/archive": {
      "get": { "summary": "Presigned download of the archived snapshot", "responses": { "200": { "description": "url" }, "404": { "description": "archive disabled or version missing" } } }
    },
    "/api/documents/{id}/versions/{versionId}/revert": {
      "post": { "summary": "Revert to a version (owner only)", "security": [{"bearer": []}], "responses": { "200": { "description": "reverted document" }, "403": { "description": "not the owner" }, "404": { "description": "not found" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
