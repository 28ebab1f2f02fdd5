package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/dopack/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/dopack/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/dopack/internal/version.Date={{.Date}}
)
