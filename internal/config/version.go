package config

// Version is the recoup binary version.
// Set at build time via: -ldflags "-X github.com/recoupio/recoup/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
