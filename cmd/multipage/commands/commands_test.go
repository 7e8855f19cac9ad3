package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

// run parses args like main does and executes the selected command.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	var out bytes.Buffer
	g := &Global{Out: &out, Err: io.Discard}

	parser, err := kong.New(&cli, kong.Name("multipage"), kong.Vars{"version": "test"}, kong.Bind(g),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = kctx.Run(g, &cli)
	return out.String(), err
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func newProject(t *testing.T, names ...string) (root, cfgPath string) {
	t.Helper()
	root = t.TempDir()
	for _, n := range names {
		writeFile(t, filepath.Join(root, "pages", n, "index.html"), "<h1>"+n+"</h1>")
	}
	cfgPath = filepath.Join(root, "multipage.yaml")
	writeFile(t, cfgPath, "multipage:\n  page_dir: pages\n")
	return root, cfgPath
}

func TestInit(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "multipage.yaml")

	out, err := run(t, "-c", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")
	assert.FileExists(t, cfgPath)

	_, err = run(t, "-c", cfgPath, "init")
	assert.Error(t, err)

	_, err = run(t, "-c", cfgPath, "init", "--force")
	assert.NoError(t, err)
}

func TestPages(t *testing.T) {
	root, cfgPath := newProject(t, "beta", "alpha")

	out, err := run(t, "-c", cfgPath, "pages")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "alpha\t"+filepath.Join(root, "pages", "alpha", "index.html"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "beta\t"))
}

func TestPages_None(t *testing.T) {
	_, cfgPath := newProject(t)
	out, err := run(t, "-c", cfgPath, "pages")
	require.NoError(t, err)
	assert.Contains(t, out, "No pages found")
}

func TestRoutes(t *testing.T) {
	_, cfgPath := newProject(t, "alpha")

	out, err := run(t, "-c", cfgPath, "routes")
	require.NoError(t, err)
	assert.Contains(t, out, "^/$")
	assert.Contains(t, out, "/pages/index/index.html")
	assert.Contains(t, out, "^/alpha$")
	assert.Contains(t, out, "/pages/alpha/index.html")

	out, err = run(t, "-c", cfgPath, "routes", "--json")
	require.NoError(t, err)
	var views []routeView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 4)
	assert.Equal(t, "root", views[0].Kind)
	assert.Equal(t, "/alpha/index.html", views[1].Path)
	assert.Equal(t, "/alpha.html", views[2].Path)
	assert.Equal(t, "/alpha", views[3].Path)
}

func TestBuild(t *testing.T) {
	root, cfgPath := newProject(t, "alpha", "beta")

	out, err := run(t, "-c", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 page(s)")
	assert.Contains(t, out, "success")
	assert.FileExists(t, filepath.Join(root, "dist", "alpha.html"))
	assert.FileExists(t, filepath.Join(root, "dist", "beta.html"))
	assert.NoDirExists(t, filepath.Join(root, "dist", "pages"))
}

func TestBuild_OutDirOverride(t *testing.T) {
	root, cfgPath := newProject(t, "alpha")

	_, err := run(t, "-c", cfgPath, "build", "--out-dir", "public")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "public", "alpha.html"))
}

func TestReorganize(t *testing.T) {
	root, cfgPath := newProject(t, "alpha")
	writeFile(t, filepath.Join(root, "dist", "pages", "alpha", "index.html"), "built")

	out, err := run(t, "-c", cfgPath, "reorganize")
	require.NoError(t, err)
	assert.Contains(t, out, "moved 1, skipped 0, failed 0")
	assert.FileExists(t, filepath.Join(root, "dist", "alpha.html"))

	out, err = run(t, "-c", cfgPath, "reorganize")
	require.NoError(t, err)
	assert.Contains(t, out, "moved 0, skipped 1, failed 0")
}

func TestReorganize_ReportsFailures(t *testing.T) {
	root, cfgPath := newProject(t, "alpha")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), 0o755))

	out, err := run(t, "-c", cfgPath, "reorganize")
	require.Error(t, err)
	assert.Contains(t, out, "failed 1")
}

func TestServe_InvalidWatchMode(t *testing.T) {
	_, cfgPath := newProject(t, "alpha")
	_, err := run(t, "-c", cfgPath, "serve", "--watch", "inotify")
	require.Error(t, err)
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "other.yaml"), "pages")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestIsDefaultConfigPath(t *testing.T) {
	assert.True(t, isDefaultConfigPath("multipage.yaml"))
	assert.True(t, isDefaultConfigPath("./multipage.yaml"))
	assert.False(t, isDefaultConfigPath("other.yaml"))
	assert.False(t, isDefaultConfigPath(filepath.Join(t.TempDir(), "multipage.yaml")))
}

func TestBadConfig(t *testing.T) {
	_, cfgPath := newProject(t)
	writeFile(t, cfgPath, "multipage:\n  root_page: nested/index.html\n")
	_, err := run(t, "-c", cfgPath, "pages")
	require.Error(t, err)
}
