// Package config loads and validates the canary configuration.
//
// Configuration is a flat JSON file plus an ordered node list. Values are
// merged in three layers: built-in defaults, the config file, and WLC_*
// environment overrides. Validation failures are fatal at startup.
package config
