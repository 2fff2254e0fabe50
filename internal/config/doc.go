// Package config loads and validates application settings from an optional
// config.yaml and SCRY_ prefixed environment variables.
package config
