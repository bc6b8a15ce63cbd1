package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebGetFetchesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := webGet(context.Background(), tctx, map[string]any{"url": srv.URL})
	require.Nil(t, res["error"])
	assert.Equal(t, "hello", res["body"])
	assert.Equal(t, http.StatusOK, res["status"])
}

func TestWebGetCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := webGet(context.Background(), tctx, map[string]any{"url": srv.URL, "max_bytes": float64(4)})
	require.Nil(t, res["error"])
	assert.Equal(t, true, res["truncated"])
	assert.Len(t, res["body"], 4)
}

func TestWebSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go modules", r.URL.Query().Get("q"))
		w.Write([]byte(`<html><body>
<a rel="nofollow" class="result__a" href="https://go.dev/ref/mod">Go <b>Modules</b> Reference</a>
<a rel="nofollow" class="result__a" href="https://go.dev/blog/using-go-modules">Using Go Modules</a>
<a rel="nofollow" class="result__a" href="https://example.com/third">Third</a>
</body></html>`))
	}))
	defer srv.Close()
	oldBase := searchBaseURL
	searchBaseURL = srv.URL
	defer func() { searchBaseURL = oldBase }()

	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := webSearch(context.Background(), tctx, map[string]any{"query": "go modules", "max_results": float64(2)})
	require.Nil(t, res["error"])

	results, _ := res["results"].([]map[string]any)
	require.Len(t, results, 2)
	assert.Equal(t, "Go Modules Reference", results[0]["title"])
	assert.Equal(t, "https://go.dev/ref/mod", results[0]["url"])
	assert.Equal(t, "Using Go Modules", results[1]["title"])
}

func TestWebSearchRequiresQuery(t *testing.T) {
	ws := testWorkspace(t)
	tctx := Context{WorkspaceRoot: ws}
	res := webSearch(context.Background(), tctx, map[string]any{})
	assert.NotNil(t, res["error"])
}
