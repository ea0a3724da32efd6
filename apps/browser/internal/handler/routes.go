// Package handler exposes the browse.Service over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// Handler translates HTTP requests into calls on the browse.Service.
type Handler struct {
	svc *browse.Service
	log *slog.Logger
}

// RegisterRoutes mounts the repobrowse API onto the given Gin engine.
func RegisterRoutes(r *gin.Engine, svc *browse.Service, log *slog.Logger) {
	h := &Handler{svc: svc, log: log}

	r.GET("/folders", h.ListSubfolders)
	r.GET("/files", h.ListFiles)
	r.GET("/content", h.GetFileContent)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
