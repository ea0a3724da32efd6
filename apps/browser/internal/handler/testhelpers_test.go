package handler_test

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
	"github.com/tilsley/repobrowse/apps/browser/internal/browse/store"
	"github.com/tilsley/repobrowse/apps/browser/internal/handler"
	"github.com/tilsley/repobrowse/apps/browser/internal/platform/validation"
	"github.com/tilsley/repobrowse/apps/browser/internal/remote/inmem"
	"github.com/tilsley/repobrowse/schemas"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ─── Test server builder ──────────────────────────────────────────────────────

type testServer struct {
	router *gin.Engine
	remote *inmem.InMem
}

var testTarget = browse.Target{Project: "platform", Repository: "config-repo"}

func seedRemote() *inmem.InMem {
	remote := inmem.NewInMem()
	remote.SetFile("platform", "config-repo", "/folder1/readme.md", "# folder1")
	remote.SetFile("platform", "config-repo", "/folder2/file1.json", `{"enabled":true}`)
	remote.SetFile("platform", "config-repo", "/folder2/file2.json", `{"property1":"value1","property2":"value2"}`)
	remote.SetFile("platform", "config-repo", "/folder2/broken.json", `{"property1":`)
	remote.SetFile("platform", "config-repo", "/folder2/app.yaml", "replicas: 2\n")
	return remote
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerFor(t, testTarget, false)
}

func newTestServerWithValidation(t *testing.T) *testServer {
	t.Helper()
	return newTestServerFor(t, testTarget, true)
}

func newTestServerFor(t *testing.T, target browse.Target, validate bool) *testServer {
	t.Helper()
	ts := &testServer{remote: seedRemote()}
	svc := browse.NewService(ts.remote, store.NewMemoryCache(), browse.Config{Target: target}, slog.Default())

	r := gin.New()
	r.Use(handler.RequestIDMiddleware())
	if validate {
		mw, err := validation.New(schemas.OpenAPISpec)
		require.NoError(t, err)
		r.Use(mw)
	}
	handler.RegisterRoutes(r, svc, slog.Default())
	ts.router = r
	return ts
}

func (ts *testServer) do(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}
