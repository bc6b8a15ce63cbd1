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

func TestBrowserHeadlessRequiresURL(t *testing.T) {
	ws := testWorkspace(t)
	handler := browserHeadless(Deps{})
	res := handler(context.Background(), Context{WorkspaceRoot: ws}, map[string]any{})
	assert.NotNil(t, res["error"])
}

func TestBrowserHeadlessFallsBackToWebGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	ws := testWorkspace(t)
	handler := browserHeadless(Deps{})
	tctx := Context{WorkspaceRoot: ws, ToolTimeout: 5 * time.Second}
	res := handler(context.Background(), tctx, map[string]any{"url": srv.URL, "engine": "definitely-not-a-browser"})
	require.Nil(t, res["error"])
	assert.Equal(t, "web_get", res["fallback"])
	assert.Equal(t, "<html>ok</html>", res["body"])
}
