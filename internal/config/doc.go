// Package config loads and validates the YAML configuration for the
// realtime client runtime. ${VAR} references in the file are expanded from
// the environment, so tokens can be kept out of the file itself.
package config
