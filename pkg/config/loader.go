package config

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/logging"
	"github.com/arthur-debert/dopack/pkg/types"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Load builds the configuration for the tree at sourceDir. Layers, last
// wins: embedded defaults, sourceDir/.dopack.toml, DOPACK_ env vars.
// An empty sourceDir skips the file layer. The tree file is read through
// fsys.
func Load(fsys types.FS, sourceDir string) (*Config, error) {
	return LoadWithOverrides(fsys, sourceDir, nil)
}

// LoadWithOverrides is Load with a final layer of dotted keys, such as
// "walk.concurrency", usually set from command line flags.
func LoadWithOverrides(fsys types.FS, sourceDir string, overrides map[string]interface{}) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Load embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Load the tree config if it exists
	if sourceDir != "" {
		path := filepath.Join(sourceDir, FileName)
		data, err := fsys.ReadFile(path)
		switch {
		case err == nil:
			if err := k.Load(&rawBytesProvider{bytes: data}, toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path).
					WithDetail("path", path)
			}
			logger.Debug().Str("path", path).Msg("Loaded tree config")
		case !stderrors.Is(err, fs.ErrNotExist):
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s", path).
				WithDetail("path", path)
		}
	}

	// 3. Load env vars
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Load overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	// 6. Validate
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps DOPACK_DESCRIPTOR_PACKAGE_MANAGER to descriptor.package_manager:
// the first underscore separates the section, the rest belong to the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

func validate(cfg *Config) error {
	if cfg.Walk.Concurrency < 0 {
		return errors.Newf(errors.ErrConfigParse, "walk.concurrency must not be negative, got %d", cfg.Walk.Concurrency)
	}
	if cfg.Descriptor.File == "" {
		return errors.New(errors.ErrConfigParse, "descriptor.file must not be empty")
	}
	if strings.ContainsAny(cfg.Descriptor.File, `/\`) {
		return errors.Newf(errors.ErrConfigParse, "descriptor.file must be a file name, got %q", cfg.Descriptor.File)
	}
	return nil
}
