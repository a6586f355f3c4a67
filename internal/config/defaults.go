// Package config provides centralized configuration constants for affirmd.
// All default values should be defined here to ensure a single source of
// truth.
package config

// Config file and environment settings.
const (
	// ConfigName is the base name of the config file (.affirmd.yaml).
	ConfigName = ".affirmd"

	// EnvPrefix namespaces environment overrides, e.g. AFFIRMD_SERVER_PORT.
	EnvPrefix = "AFFIRMD"
)

// Server defaults.
const (
	// DefaultPort is the HTTP listen port.
	DefaultPort = 8080
)

// Store defaults.
const (
	// DefaultStorePath is the directory holding the config database.
	DefaultStorePath = ".affirmd"
)

// LLM defaults.
const (
	// DefaultProvider is the default LLM provider.
	DefaultProvider = "openai"
)
