package config

// Build metadata, injected at link time:
//
//	go build -ldflags "-X github.com/edirooss/picam-panel/internal/config.Version=v1.2.0 ..."
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)
