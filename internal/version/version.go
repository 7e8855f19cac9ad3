package version

// Version is the application version, set at build time:
// go build -ldflags "-X github.com/sleep909/multipage/internal/version.Version=v0.3.0".
var Version = "dev"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return "multipage " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
