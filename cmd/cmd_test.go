package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-audit/internal/config"
	"github.com/JakeFAU/site-audit/internal/fetch"
	"github.com/JakeFAU/site-audit/internal/fetch/headless"
	"github.com/JakeFAU/site-audit/internal/fetch/playwright"
)

const page = `<!doctype html><html lang="en"><head><title>Pebble Journal</title>
<meta name="description" content="Notes on river pebbles."></head>
<body><main><h1>River pebbles</h1><p>%s</p></main></body></html>`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
render:
  enabled: false
audit:
  pagespeed_enabled: false
sitemap:
  timeout_seconds: 2
logging:
  development: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	body := fmt.Sprintf(page, strings.Repeat("Smooth pebbles collect where the river bends. ", 40))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeCommandJSON(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", writeConfig(t), "analyze", srv.URL})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, "1.0.0", decoded["version"])
	md := decoded["metadata"].(map[string]any)
	require.Equal(t, "Pebble Journal", md["title"])
}

func TestAnalyzeCommandMarkdown(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", writeConfig(t), "analyze", srv.URL, "--format", "markdown"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.Contains(t, out.String(), "# Site audit: 127.0.0.1")
}

func TestAnalyzeCommandRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", writeConfig(t), "analyze", "https://example.com", "--format", "xml"})
	require.Error(t, root.ExecuteContext(context.Background()))
}

func TestAnalyzeCommandFetchFailure(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", writeConfig(t), "analyze", "http://127.0.0.1:1/"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not fetch page")
}

func TestBuildRenderer(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Render: config.RenderConfig{Enabled: false, Engine: "chromedp"}}
	r, err := buildRenderer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, fetch.Noop{}, r)

	cfg.Render.Enabled = true
	r, err = buildRenderer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &headless.Renderer{}, r)

	cfg.Render.Engine = "playwright"
	r, err = buildRenderer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &playwright.Renderer{}, r)

	cfg.Render.Engine = "lynx"
	_, err = buildRenderer(cfg, zap.NewNop())
	require.Error(t, err)
}
