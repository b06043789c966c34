// Package config defines the application configuration structure and
// loading. Values come from an optional config.yaml plus TALENT_-prefixed
// environment variables, with environment taking precedence, and are
// validated before the application starts.
package config
