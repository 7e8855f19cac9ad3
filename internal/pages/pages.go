// Package pages discovers the page sub-projects living under a pages root.
//
// A page is an immediate subdirectory of the pages root; its name is the
// directory name and its entry document is <pages root>/<name>/<root page>.
// Discovery reflects filesystem state at call time. Callers that need the
// same view across phases should discover once and pass the slice along.
package pages

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

// Page is one self-contained sub-site under the pages root.
type Page struct {
	Name string
}

// RootFile returns the slash-separated, root-relative path of the page's entry document.
func (p Page) RootFile(pageDir, rootPage string) string {
	return path.Join(pageDir, p.Name, rootPage)
}

// EntryPath returns the absolute OS path of the page's entry document.
func (p Page) EntryPath(root, pageDir, rootPage string) string {
	return filepath.Join(root, filepath.FromSlash(p.RootFile(pageDir, rootPage)))
}

// Names returns the page names in order.
func Names(pages []Page) []string {
	names := make([]string, len(pages))
	for i, p := range pages {
		names[i] = p.Name
	}
	return names
}

// Discover lists the immediate subdirectories of pageDir inside fsys, sorted
// by name. Hidden directories and plain files are skipped; symlinks count when
// they resolve to a directory. A missing pages root yields an empty slice and
// no error.
func Discover(fsys billy.Filesystem, pageDir string) ([]Page, error) {
	dir := filepath.FromSlash(pageDir)
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Page{}, nil
		}
		return []Page{}, ferrors.WrapError(err, ferrors.CategoryDiscovery, "failed to list pages root").
			Warning().
			WithContext("page_dir", pageDir).
			Build()
	}

	pages := make([]Page, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !isDir(fsys, filepath.Join(dir, name), entry) {
			continue
		}
		pages = append(pages, Page{Name: name})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })
	return pages, nil
}

// DiscoverDir runs Discover against the OS filesystem rooted at root.
func DiscoverDir(root, pageDir string) ([]Page, error) {
	return Discover(osfs.New(root), pageDir)
}

func isDir(fsys billy.Filesystem, p string, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink == 0 {
		return info.IsDir()
	}
	target, err := fsys.Stat(p)
	return err == nil && target.IsDir()
}
