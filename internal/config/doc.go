// Package config loads the analyzer's runtime configuration.
//
// Configuration is resolved in three layers: compiled-in defaults, an
// optional YAML file, and environment variables, with later layers
// winning. The environment layer exists so the service runs with no
// config file at all (HOST, PORT, GITHUB_TOKEN, and friends). Watch
// re-loads the YAML file on change so settings like the log level can
// be adjusted without a restart.
package config
