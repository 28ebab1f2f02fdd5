// Package config loads dopack configuration from embedded defaults, an
// optional .dopack.toml in the source tree and DOPACK_ environment variables.
package config
