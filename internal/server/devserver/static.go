package devserver

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const indexFile = "index.html"

// staticHandler serves files below root.
type staticHandler struct {
	root string
}

func (h staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name, ok := h.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		_ = f.Close()
		name = filepath.Join(name, indexFile)
		if f, err = os.Open(filepath.Clean(name)); err != nil {
			http.NotFound(w, r)
			return
		}
		if info, err = f.Stat(); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// resolve maps a URL path to a file below root. Paths containing a ".."
// segment or a NUL byte are rejected before cleaning.
func (h staticHandler) resolve(urlPath string) (string, bool) {
	if strings.ContainsRune(urlPath, 0) {
		return "", false
	}
	for _, seg := range strings.Split(urlPath, "/") {
		if seg == ".." {
			return "", false
		}
	}
	clean := path.Clean("/" + urlPath)
	p := filepath.Join(h.root, filepath.FromSlash(clean))

	rel, err := filepath.Rel(h.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if _, err := os.Lstat(p); errors.Is(err, fs.ErrNotExist) {
		return "", false
	}
	return p, true
}
