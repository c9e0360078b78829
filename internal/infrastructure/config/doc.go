// Package config loads server configuration from the environment, with an
// optional YAML or TOML file overlay named by FRAMELENS_CONFIG.
package config
