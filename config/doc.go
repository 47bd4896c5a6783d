// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, routing limits, memory persistence, and health
// check intervals.
package config
