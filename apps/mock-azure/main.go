// Command mock-azure serves a small slice of the Azure DevOps Git REST API
// from memory, so repobrowse can run end to end without a real organisation.
package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
	"github.com/tilsley/repobrowse/apps/browser/internal/remote/inmem"
	"github.com/tilsley/repobrowse/pkg/logging"
)

// repoRef is what the mock knows about a repository id it handed out.
type repoRef struct {
	project string
	name    string
}

// server maps Azure-style repository GUIDs onto an inmem remote.
type server struct {
	files *inmem.InMem
	log   *slog.Logger

	mu  sync.RWMutex
	ids map[string]repoRef // guid -> project/name
}

func newServer(files *inmem.InMem, log *slog.Logger) *server {
	return &server{files: files, log: log, ids: make(map[string]repoRef)}
}

// repoID derives a stable GUID for project/name and remembers it.
func (s *server) repoID(project, name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(project+"/"+name)).String()
	s.mu.Lock()
	s.ids[id] = repoRef{project, name}
	s.mu.Unlock()
	return id
}

func (s *server) lookup(id string) (repoRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.ids[id]
	return ref, ok
}

func main() {
	log := logging.New("mock-azure")

	files := inmem.NewInMem()
	project := envOr("MOCK_PROJECT", "platform")
	repository := envOr("MOCK_REPOSITORY", "config-repo")
	if dir := os.Getenv("MOCK_SEED_DIR"); dir != "" {
		if err := files.LoadFS(project, repository, os.DirFS(dir)); err != nil {
			log.Error("seed from directory failed", "dir", dir, "error", err)
			os.Exit(1)
		}
	} else {
		seedRepo(files, project, repository)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	registerRoutes(r, newServer(files, log))

	port := envOr("PORT", "9091")
	log.Info("starting mock azure devops", "port", port, "project", project, "repository", repository)
	if err := r.Run(":" + port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func registerRoutes(r *gin.Engine, s *server) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// GET /{project}/_apis/git/repositories/{name}
	r.GET("/:project/_apis/git/repositories/:repo", func(c *gin.Context) {
		project, name := c.Param("project"), c.Param("repo")
		repo, err := s.files.GetRepository(c.Request.Context(), project, name)
		if err != nil || repo == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "TF200016: The following project does not exist"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":      s.repoID(project, name),
			"name":    name,
			"project": gin.H{"name": project},
		})
	})

	// GET /{project}/_apis/git/repositories/{id}/items?scopePath=&recursionLevel=
	r.GET("/:project/_apis/git/repositories/:repo/items", func(c *gin.Context) {
		ref, ok := s.lookup(c.Param("repo"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "repository not found"})
			return
		}
		level := browse.RecursionLevel(c.DefaultQuery("recursionLevel", string(browse.RecursionOneLevel)))
		items, err := s.files.ListItems(c.Request.Context(), ref.project,
			ref.project+"/"+ref.name, c.DefaultQuery("scopePath", "/"), level)
		if err != nil {
			s.log.Debug("list items failed", "error", err)
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}

		value := make([]gin.H, 0, len(items))
		for i, it := range items {
			objType := "blob"
			if it.IsFolder {
				objType = "tree"
			}
			value = append(value, gin.H{
				"objectId":      strconv.Itoa(i),
				"gitObjectType": objType,
				"path":          it.Path,
				"isFolder":      it.IsFolder,
			})
		}
		c.JSON(http.StatusOK, gin.H{"count": len(value), "value": value})
	})

	// GET /_apis/git/repositories/{id}/items?path=&$format=octetStream
	r.GET("/_apis/git/repositories/:repo/items", func(c *gin.Context) {
		ref, ok := s.lookup(c.Param("repo"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "repository not found"})
			return
		}
		rc, err := s.files.GetItemContent(c.Request.Context(), ref.project+"/"+ref.name, c.Query("path"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		defer rc.Close() //nolint:errcheck // in-memory reader

		c.Status(http.StatusOK)
		c.Header("Content-Type", "application/octet-stream")
		if _, err := io.Copy(c.Writer, rc); err != nil {
			s.log.Warn("write item content failed", "error", err)
		}
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
