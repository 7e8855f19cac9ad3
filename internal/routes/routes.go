// Package routes builds the entry list and the ordered rewrite rule table
// that maps request paths onto page entry documents.
//
// Rules match whole path segments instead of interpolated patterns, so a
// page name is compared literally no matter which characters it contains.
package routes

import (
	"path"
	"strings"

	"github.com/sleep909/multipage/internal/pages"
)

// Kind identifies which rule shape produced a rule.
type Kind string

const (
	KindRoot     Kind = "root"      // "/"
	KindDeepLink Kind = "deep-link" // "/<page>/<root page>"
	KindHTML     Kind = "html"      // "/<page>.html"
	KindClean    Kind = "clean"     // "/<page>"
)

// Options carries the two settings that shape rules and entries.
type Options struct {
	PageDir  string
	RootPage string
}

// Rule maps one exact request path onto a target path.
type Rule struct {
	Kind     Kind
	Page     string // empty for the root rule
	Segments []string
	Target   string
}

// Matches reports whether urlPath is exactly the rule's path.
func (r Rule) Matches(urlPath string) bool {
	segs, ok := splitPath(urlPath)
	return ok && equalSegments(segs, r.Segments)
}

// Path returns the request path the rule matches.
func (r Rule) Path() string {
	return "/" + strings.Join(r.Segments, "/")
}

// Pattern renders the rule as an anchored pattern, for display only.
func (r Rule) Pattern() string {
	return "^" + r.Path() + "$"
}

// Table is an immutable, ordered rule list plus the build entry paths.
// It is safe for concurrent reads.
type Table struct {
	opts    Options
	pages   []pages.Page
	rules   []Rule
	entries []string
}

// Build constructs the table for the given pages. root is the absolute
// project root used for entry paths. Page order is preserved.
func Build(root string, opts Options, discovered []pages.Page) *Table {
	t := &Table{
		opts:    opts,
		pages:   append([]pages.Page(nil), discovered...),
		rules:   make([]Rule, 0, 1+3*len(discovered)),
		entries: make([]string, 0, len(discovered)),
	}

	t.rules = append(t.rules, Rule{
		Kind:     KindRoot,
		Segments: []string{},
		Target:   "/" + path.Join(opts.PageDir, RootStem(opts.RootPage), opts.RootPage),
	})

	for _, p := range t.pages {
		target := "/" + p.RootFile(opts.PageDir, opts.RootPage)
		t.rules = append(t.rules,
			Rule{Kind: KindDeepLink, Page: p.Name, Segments: []string{p.Name, opts.RootPage}, Target: target},
			Rule{Kind: KindHTML, Page: p.Name, Segments: []string{p.Name + ".html"}, Target: target},
			Rule{Kind: KindClean, Page: p.Name, Segments: []string{p.Name}, Target: target},
		)
		t.entries = append(t.entries, p.EntryPath(root, opts.PageDir, opts.RootPage))
	}
	return t
}

// RootStem strips a literal trailing ".html" from the root page name. Other
// extensions are kept verbatim.
func RootStem(rootPage string) string {
	return strings.TrimSuffix(rootPage, ".html")
}

// Match returns the first rule matching urlPath.
func (t *Table) Match(urlPath string) (Rule, bool) {
	segs, ok := splitPath(urlPath)
	if !ok {
		return Rule{}, false
	}
	for _, r := range t.rules {
		if equalSegments(segs, r.Segments) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the rules in evaluation order.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}

// Entries returns a copy of the absolute entry document paths, one per page.
func (t *Table) Entries() []string {
	return append([]string(nil), t.entries...)
}

// Pages returns the pages the table was built from.
func (t *Table) Pages() []pages.Page {
	return append([]pages.Page(nil), t.pages...)
}

// Options returns the options the table was built with.
func (t *Table) Options() Options {
	return t.opts
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// splitPath splits an absolute URL path into segments. "/" yields no segments.
func splitPath(urlPath string) ([]string, bool) {
	if !strings.HasPrefix(urlPath, "/") {
		return nil, false
	}
	if urlPath == "/" {
		return []string{}, true
	}
	return strings.Split(urlPath[1:], "/"), true
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
