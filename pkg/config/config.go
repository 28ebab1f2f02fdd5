package config

import (
	_ "embed"
	"errors"

	dperrors "github.com/arthur-debert/dopack/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the per-tree configuration file.
const FileName = ".dopack.toml"

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "DOPACK_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// DefaultsContent returns the embedded default configuration.
func DefaultsContent() string {
	return string(defaultConfig)
}

// Config is the effective dopack configuration.
type Config struct {
	Ignore     Ignore     `koanf:"ignore" toml:"ignore"`
	Walk       Walk       `koanf:"walk" toml:"walk"`
	Export     Export     `koanf:"export" toml:"export"`
	Descriptor Descriptor `koanf:"descriptor" toml:"descriptor"`
}

// Ignore selects the ignore rules of an export.
type Ignore struct {
	Files    []string `koanf:"files" toml:"files"`
	Defaults []string `koanf:"defaults" toml:"defaults"`
}

// Walk tunes the tree walk.
type Walk struct {
	Concurrency int `koanf:"concurrency" toml:"concurrency"`
}

// Export holds export defaults.
type Export struct {
	Replace bool `koanf:"replace" toml:"replace"`
}

// Descriptor tunes descriptor rewriting.
type Descriptor struct {
	File           string   `koanf:"file" toml:"file"`
	PackageManager string   `koanf:"package_manager" toml:"package_manager"`
	BundleDir      string   `koanf:"bundle_dir" toml:"bundle_dir"`
	Strip          []string `koanf:"strip" toml:"strip"`
}

// TOML renders the configuration as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, dperrors.Wrap(err, dperrors.ErrInternal, "cannot encode configuration")
	}
	return data, nil
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}
