package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// ListSubfolders handles GET /folders?path= and lists the folders below path.
func (h *Handler) ListSubfolders(c *gin.Context) {
	path := c.Query("path")

	folders, err := h.svc.ListSubfolders(c.Request.Context(), path)
	if err != nil {
		h.fail(c, "failed to list folders", err, "path", path)
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// ListFiles handles GET /files?path= and lists the files inside path.
func (h *Handler) ListFiles(c *gin.Context) {
	path := c.Query("path")

	files, err := h.svc.ListFiles(c.Request.Context(), path)
	if err != nil {
		h.fail(c, "failed to list files", err, "path", path)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// GetFileContent handles GET /content?path=&name= and returns the parsed file.
func (h *Handler) GetFileContent(c *gin.Context) {
	path, name := c.Query("path"), c.Query("name")

	doc, err := h.svc.GetFileContent(c.Request.Context(), path, name)
	if err != nil {
		h.fail(c, "failed to get file content", err, "path", path, "name", name)
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// fail maps browse errors onto HTTP statuses. Only unexpected errors are
// logged; the rest are the caller's problem.
func (h *Handler) fail(c *gin.Context, msg string, err error, attrs ...any) {
	var (
		invalid   browse.InvalidArgumentError
		notFound  browse.RepositoryNotFoundError
		malformed browse.MalformedContentError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &malformed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		attrs = append(attrs, "request_id", RequestID(c), "error", err)
		h.log.Error(msg, attrs...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
