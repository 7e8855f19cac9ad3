package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPage       = "page"
	KeyPages      = "pages"
	KeyPath       = "path"
	KeyTarget     = "target"
	KeyRule       = "rule"
	KeyStatus     = "status"
	KeyMethod     = "method"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyDurationMS = "duration_ms"
	KeyOutDir     = "out_dir"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Page(name string) slog.Attr       { return slog.String(KeyPage, name) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Target(p string) slog.Attr        { return slog.String(KeyTarget, p) }
func Rule(kind string) slog.Attr       { return slog.String(KeyRule, kind) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func OutDir(dir string) slog.Attr      { return slog.String(KeyOutDir, dir) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
