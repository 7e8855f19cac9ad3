package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestExtractAssetRefs(t *testing.T) {
	doc := `<!doctype html><html><head>
<link rel="stylesheet" href="style.css">
<script type="module" src="./main.js"></script>
</head><body>
<img src=" /shared/logo.png ">
<video src="clip.mp4"><source src="clip.webm"></video>
<audio src="a.ogg"></audio>
<a href="/other">ignored</a>
<script>inline()</script>
</body></html>`

	refs, err := ExtractAssetRefs(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"style.css", "./main.js", "/shared/logo.png", "clip.mp4", "clip.webm", "a.ogg"}, refs)
}

func TestBundle_PreservesEntryStructure(t *testing.T) {
	root := t.TempDir()
	alpha := filepath.Join(root, "pages", "alpha", "index.html")
	beta := filepath.Join(root, "pages", "beta", "index.html")
	writeFile(t, alpha, `<html><head><script src="main.js"></script><link href="/shared/site.css"></head></html>`)
	writeFile(t, filepath.Join(root, "pages", "alpha", "main.js"), "console.log(1)")
	writeFile(t, filepath.Join(root, "shared", "site.css"), "body{}")
	writeFile(t, beta, `<html><body><img src="https://cdn.example.com/x.png"><img src="data:image/png;base64,AAA"><img src="../../../outside.png"></body></html>`)

	res, err := NewHTMLBundler(nil).Bundle(context.Background(), &Options{
		Root:   root,
		OutDir: "dist",
		Input:  []string{alpha, beta},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pages/alpha/index.html",
		"pages/alpha/main.js",
		"pages/beta/index.html",
		"shared/site.css",
	}, res.Files)

	out := filepath.Join(root, "dist")
	for _, f := range res.Files {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(f)))
	}
	got, err := os.ReadFile(filepath.Join(out, "pages", "alpha", "main.js"))
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(got))
}

// memFactory roots every requested directory inside one shared memfs.
func memFactory(t *testing.T, mem billy.Filesystem) FSFactory {
	return func(dir string) billy.Filesystem {
		sub, err := mem.Chroot(dir)
		require.NoError(t, err)
		return sub
	}
}

func TestBundle_InMemory(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "/proj/pages/alpha/index.html",
		[]byte(`<script src="app.js"></script><img src="/img/logo.png"><img src="/../escape.png">`), 0o644))
	require.NoError(t, util.WriteFile(mem, "/proj/pages/alpha/app.js", []byte("run()"), 0o644))
	require.NoError(t, util.WriteFile(mem, "/proj/img/logo.png", []byte("png"), 0o644))

	b := NewHTMLBundler(nil, WithFilesystem(memFactory(t, mem)))
	res, err := b.Bundle(context.Background(), &Options{
		Root:   "/proj",
		OutDir: "dist",
		Input:  []string{"/proj/pages/alpha/index.html"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"img/logo.png", "pages/alpha/app.js", "pages/alpha/index.html"}, res.Files)

	got, err := util.ReadFile(mem, "/proj/dist/pages/alpha/app.js")
	require.NoError(t, err)
	assert.Equal(t, "run()", string(got))
	_, err = mem.Stat("/proj/dist/img/logo.png")
	assert.NoError(t, err)
}

func TestBundle_MissingAssetIsSkipped(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "pages", "solo", "index.html")
	writeFile(t, entry, `<script src="missing.js"></script>`)

	res, err := NewHTMLBundler(nil).Bundle(context.Background(), &Options{Root: root, OutDir: "dist", Input: []string{entry}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pages/solo/index.html"}, res.Files)
}

func TestBundle_AbsoluteOutDir(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	entry := filepath.Join(root, "pages", "a", "index.html")
	writeFile(t, entry, "<p>a</p>")

	_, err := NewHTMLBundler(nil).Bundle(context.Background(), &Options{Root: root, OutDir: out, Input: []string{entry}})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "pages", "a", "index.html"))
}

func TestBundle_Errors(t *testing.T) {
	t.Run("input outside root", func(t *testing.T) {
		root := t.TempDir()
		other := filepath.Join(t.TempDir(), "index.html")
		writeFile(t, other, "<p></p>")

		_, err := NewHTMLBundler(nil).Bundle(context.Background(), &Options{Root: root, OutDir: "dist", Input: []string{other}})
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	})

	t.Run("missing entry", func(t *testing.T) {
		root := t.TempDir()
		_, err := NewHTMLBundler(nil).Bundle(context.Background(), &Options{
			Root: root, OutDir: "dist", Input: []string{filepath.Join(root, "pages", "gone", "index.html")},
		})
		require.Error(t, err)
	})

	t.Run("no root", func(t *testing.T) {
		_, err := NewHTMLBundler(nil).Bundle(context.Background(), &Options{})
		require.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		root := t.TempDir()
		entry := filepath.Join(root, "index.html")
		writeFile(t, entry, "<p></p>")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewHTMLBundler(nil).Bundle(ctx, &Options{Root: root, OutDir: "dist", Input: []string{entry}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
