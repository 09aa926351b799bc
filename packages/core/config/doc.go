// Package config handles configuration loading and management for hitpost.
//
// It provides functionality for:
//   - Loading .hitpost.config.json, hitpost.config.json or .hitpostrc files
//   - Default configuration values
//   - Merging file settings with command-line overrides
package config
