package loader

import (
	"fmt"
	"net/url"
	"os"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type ValidationIssue struct {
	Path    string
	Message string
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(path, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) addWarning(path, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateConfigBytes checks a config document as written, before defaults are applied. A
// document that is not valid YAML for the config schema returns an error rather than a result.
func ValidateConfigBytes(data []byte) (*ValidationResult, error) {
	cfg := &model.Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}

	result := &ValidationResult{}
	validateApi(cfg.Api, result)

	if cfg.RefreshInterval < 0 {
		result.addError("refreshInterval", "must be positive, got %v", cfg.RefreshInterval)
	}
	if cfg.Polling.FastCadence < 0 {
		result.addError("polling.fastCadence", "must be positive, got %v", cfg.Polling.FastCadence)
	}
	if cfg.Polling.SlowCadence < 0 {
		result.addError("polling.slowCadence", "must be positive, got %v", cfg.Polling.SlowCadence)
	}
	if cfg.Polling.FastCadence > 0 && cfg.Polling.SlowCadence > 0 && cfg.Polling.FastCadence > cfg.Polling.SlowCadence {
		result.addWarning("polling", "fastCadence %v is slower than slowCadence %v", cfg.Polling.FastCadence, cfg.Polling.SlowCadence)
	}

	if cfg.Premium != nil && len(cfg.Premium) == 0 {
		result.addWarning("premium", "no premium rules; every instance uses the default deployment")
	}
	for i, rule := range cfg.Premium {
		if rule.Framework == "" && rule.GpuType == "" {
			result.addError(fmt.Sprintf("premium[%d]", i), "rule needs a framework or a gpuType")
		}
	}

	if influx := cfg.Metrics.Influx; influx != nil {
		if influx.Url == "" {
			result.addError("metrics.influx.url", "required")
		} else if err := checkUrl(influx.Url); err != nil {
			result.addError("metrics.influx.url", "%v", err)
		}
		if influx.Org == "" {
			result.addError("metrics.influx.org", "required")
		}
		if influx.Bucket == "" {
			result.addError("metrics.influx.bucket", "required")
		}
	}

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			result.addError("log.level", "%v", err)
		}
	}

	return result, nil
}

func validateApi(api model.ApiConfig, result *ValidationResult) {
	if api.BaseUrl == "" {
		result.addError("api.baseUrl", "required")
	} else if err := checkUrl(api.BaseUrl); err != nil {
		result.addError("api.baseUrl", "%v", err)
	}
	if api.PremiumBaseUrl != "" {
		if err := checkUrl(api.PremiumBaseUrl); err != nil {
			result.addError("api.premiumBaseUrl", "%v", err)
		}
	}
	if api.Token == "" && os.Getenv(model.TokenEnvVar) == "" {
		result.addWarning("api.token", "not set and %s is empty; requests will be unauthenticated", model.TokenEnvVar)
	}
}

func checkUrl(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("unsupported scheme '%s' in '%s'", u.Scheme, raw)
	}
	if u.Host == "" {
		return errors.Errorf("missing host in '%s'", raw)
	}
	return nil
}
