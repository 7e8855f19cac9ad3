package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/sleep909/multipage/internal/logfields"
	"github.com/sleep909/multipage/internal/metrics"
	"github.com/sleep909/multipage/internal/routes"
)

// TableSource yields the route table to use for a request. Implementations
// may swap tables between requests but must never mutate a published table.
type TableSource interface {
	Table() *routes.Table
}

type staticSource struct{ table *routes.Table }

func (s staticSource) Table() *routes.Table { return s.table }

// Static wraps a fixed table as a TableSource.
func Static(t *routes.Table) TableSource {
	return staticSource{table: t}
}

// RewriteOptions configures the Rewrite middleware.
type RewriteOptions struct {
	// MimeCheck sets Content-Type from the extension of the requested path.
	MimeCheck bool
	Logger    *slog.Logger
	Recorder  metrics.Recorder
}

// Rewrite maps page URLs onto their entry documents. For each request the
// URL path is checked against the table in order; on the first match the
// request URL is replaced with the rule's target and the response status
// becomes 308. Unmatched requests pass through unchanged.
//
// Matching uses the escaped path as it appeared on the wire, so "/al%70ha"
// does not match page "alpha". Content-Type inference looks at the path as
// requested, before rewriting, so "/alpha.html" is served as text/html while
// "/alpha" gets no header.
func Rewrite(src TableSource, opts RewriteOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := metrics.OrNoop(opts.Recorder)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := r.URL.EscapedPath()

			if opts.MimeCheck {
				if ct := ContentType(name); ct != "" {
					w.Header().Set("Content-Type", ct)
				}
			}

			table := src.Table()
			if table == nil {
				rec.IncPassthrough()
				next.ServeHTTP(w, r)
				return
			}
			rule, ok := table.Match(name)
			if !ok {
				rec.IncPassthrough()
				next.ServeHTTP(w, r)
				return
			}

			rewritten := r.Clone(r.Context())
			rewritten.URL.Path = rule.Target
			rewritten.URL.RawPath = ""
			rewritten.URL.RawQuery = ""
			rewritten.URL.Fragment = ""
			rewritten.RequestURI = rule.Target

			rec.IncRewrite(string(rule.Kind))
			logger.Debug("Rewrote page request",
				logfields.Path(name),
				logfields.Target(rule.Target),
				logfields.Rule(string(rule.Kind)),
				logfields.Page(rule.Page))

			pw := &permanentRedirectWriter{ResponseWriter: w}
			next.ServeHTTP(pw, rewritten)
			if !pw.wroteHeader {
				pw.WriteHeader(http.StatusPermanentRedirect)
			}
		})
	}
}

// ContentType returns the registered MIME type for the extension of p, or ""
// when p has no extension or the extension is unknown.
func ContentType(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// permanentRedirectWriter turns the downstream 200 into 308. Other statuses
// (304, 404, 206, ...) pass through untouched.
type permanentRedirectWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *permanentRedirectWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	if code >= 100 && code < 200 {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	if code == http.StatusOK {
		code = http.StatusPermanentRedirect
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *permanentRedirectWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *permanentRedirectWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
