package env

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/ostafen/trailscan/internal/env.Version=v0.1.0"
var (
	AppName    = "trailscan"
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)
