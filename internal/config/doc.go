// Package config loads snag configuration from YAML manifest files and
// environment variables.
//
// Precedence, lowest to highest: built-in defaults, manifest file,
// SNAG_-prefixed environment variables, command-line flags (merged by the
// CLI via Config.Merge).
package config
