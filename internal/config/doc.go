// Package config loads, validates, and normalizes the TOML configuration for
// stillsync. Defaults are applied before the file is decoded, so a missing or
// sparse config still yields a fully-populated Config; path fields are
// tilde-expanded and made absolute during normalization.
package config
