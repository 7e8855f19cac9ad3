package bundle

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/net/html"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

// assetAttrs lists the element attributes that reference local assets.
var assetAttrs = map[string]string{
	"script": "src",
	"link":   "href",
	"img":    "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
}

// FSFactory returns a filesystem rooted at dir. The bundler opens one for the
// project root and one for the output directory.
type FSFactory func(dir string) billy.Filesystem

// HTMLBundler copies every entry document into OutDir and, for HTML entries,
// the local assets they reference. Contents are copied verbatim.
type HTMLBundler struct {
	Logger *slog.Logger
	FS     FSFactory
}

// Option configures an HTMLBundler.
type Option func(*HTMLBundler)

// WithFilesystem replaces the OS filesystem, e.g. with memfs in tests.
func WithFilesystem(f FSFactory) Option {
	return func(b *HTMLBundler) { b.FS = f }
}

// NewHTMLBundler returns a bundler logging to logger (slog.Default when nil)
// that reads and writes through osfs unless WithFilesystem is given.
func NewHTMLBundler(logger *slog.Logger, opts ...Option) *HTMLBundler {
	if logger == nil {
		logger = slog.Default()
	}
	b := &HTMLBundler{Logger: logger, FS: func(dir string) billy.Filesystem { return osfs.New(dir) }}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OutputPath returns the absolute output directory for opts.
func (o *Options) OutputPath() string {
	if filepath.IsAbs(o.OutDir) {
		return o.OutDir
	}
	return filepath.Join(o.Root, o.OutDir)
}

// Bundle implements Orchestrator.
func (b *HTMLBundler) Bundle(ctx context.Context, opts *Options) (*Result, error) {
	if opts == nil || opts.Root == "" {
		return nil, ferrors.BuildError("bundle options require a project root").Build()
	}
	outDir := opts.OutputPath()
	src, dst := b.FS(opts.Root), b.FS(outDir)
	if err := dst.MkdirAll(".", 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("out_dir", outDir).Build()
	}

	written := map[string]struct{}{}
	for _, entry := range opts.Input {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := relInside(opts.Root, entry)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "entry is outside the project root").
				WithContext("entry", entry).Build()
		}
		if err := copyFile(src, rel, dst); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "emit entry document").
				WithContext("entry", entry).Build()
		}
		written[filepath.ToSlash(rel)] = struct{}{}

		if !isHTML(entry) {
			continue
		}
		for _, asset := range b.localAssets(src, rel) {
			if _, done := written[filepath.ToSlash(asset)]; done {
				continue
			}
			if err := copyFile(src, asset, dst); err != nil {
				b.Logger.Warn("Skipping unreadable asset", "entry", entry, "asset", asset, "error", err)
				continue
			}
			written[filepath.ToSlash(asset)] = struct{}{}
		}
	}

	files := make([]string, 0, len(written))
	for f := range written {
		files = append(files, f)
	}
	sort.Strings(files)
	b.Logger.Debug("Bundle written", "entries", len(opts.Input), "files", len(files), "out_dir", outDir)
	return &Result{Files: files}, nil
}

// localAssets parses the root-relative entry and resolves the local files it
// references, also root-relative. Parse failures yield no assets; the entry
// itself is still emitted.
func (b *HTMLBundler) localAssets(fsys billy.Filesystem, entry string) []string {
	f, err := fsys.Open(entry)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	refs, err := ExtractAssetRefs(f)
	if err != nil {
		b.Logger.Warn("Could not parse entry document", "entry", entry, "error", err)
		return nil
	}

	var assets []string
	for _, ref := range refs {
		if p, ok := resolveLocal(fsys, filepath.Dir(entry), ref); ok {
			assets = append(assets, p)
		}
	}
	return assets
}

// ExtractAssetRefs returns the raw asset references found in an HTML document,
// in document order.
func ExtractAssetRefs(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := assetAttrs[n.Data]; ok {
				if v := getAttr(n, attr); v != "" {
					refs = append(refs, v)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// resolveLocal turns an asset reference into a root-relative file path.
// External URLs, data URIs, fragments, directories and references escaping
// the root are rejected.
func resolveLocal(fsys billy.Filesystem, baseDir, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	var p string
	if strings.HasPrefix(u.Path, "/") {
		p = filepath.FromSlash(strings.TrimPrefix(path.Clean(u.Path), "/"))
	} else {
		p = filepath.Join(baseDir, filepath.FromSlash(u.Path))
	}
	if p == "" || p == "." || p == ".." || strings.HasPrefix(p, ".."+string(filepath.Separator)) {
		return "", false
	}
	info, err := fsys.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}

func relInside(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes root")
	}
	return rel, nil
}

func isHTML(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// copyFile copies rel from src to the same relative path in dst.
func copyFile(src billy.Filesystem, rel string, dst billy.Filesystem) error {
	info, err := src.Stat(rel)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "copy", Path: rel, Err: errors.New("is a directory")}
	}
	in, err := src.Open(rel)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if dir := filepath.Dir(rel); dir != "." {
		if err := dst.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := dst.OpenFile(rel, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
