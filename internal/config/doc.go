// Package config loads client configuration from YAML with environment
// variable expansion and duration parsing.
package config
