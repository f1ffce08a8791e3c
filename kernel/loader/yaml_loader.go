package loader

import (
	"os"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// LoadConfig reads a controller config file, fills defaults and applies the token override from
// the environment. The result is validated; a config with errors is refused.
func LoadConfig(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config [%s]", path)
	}

	result, err := ValidateConfigBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse config [%s]", path)
	}
	for _, w := range result.Warnings {
		pfxlog.Logger().Warnf("config [%s]: %s", path, w)
	}
	if !result.IsValid() {
		return nil, errors.Errorf("invalid config [%s]: %v", path, result.Errors)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse config [%s]", path)
	}
	pfxlog.Logger().Debugf("loaded config [%s]", path)
	return cfg, nil
}

// ParseConfig decodes a config document, fills defaults and applies environment overrides. It does
// not validate.
func ParseConfig(data []byte) (*model.Config, error) {
	cfg := &model.Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if token := os.Getenv(model.TokenEnvVar); token != "" {
		cfg.Api.Token = token
	}
	return cfg, nil
}
