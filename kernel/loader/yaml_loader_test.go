package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chunga-ict/instancectl/kernel/model"
)

func TestLoadConfig_Basic(t *testing.T) {
	t.Setenv(model.TokenEnvVar, "")
	yaml := `
api:
  baseUrl: https://api.example.com/
  premiumBaseUrl: https://long.example.com/
  token: secret
refreshInterval: 2m
polling:
  fastCadence: 250ms
  slowCadence: 5s
premium:
  - framework: pytorch
    gpuType: H100
log:
  level: debug
userId: u-1
`
	path := writeTempYaml(t, yaml)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Api.BaseUrl != "https://api.example.com/" {
		t.Errorf("unexpected baseUrl '%s'", cfg.Api.BaseUrl)
	}
	if cfg.Api.PremiumBaseUrl != "https://long.example.com/" {
		t.Errorf("unexpected premiumBaseUrl '%s'", cfg.Api.PremiumBaseUrl)
	}
	if cfg.Api.Token != "secret" {
		t.Errorf("expected token from file, got '%s'", cfg.Api.Token)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Errorf("expected refreshInterval 2m, got %v", cfg.RefreshInterval)
	}
	if cfg.Polling.FastCadence != 250*time.Millisecond {
		t.Errorf("expected fastCadence 250ms, got %v", cfg.Polling.FastCadence)
	}
	if cfg.Polling.SlowCadence != 5*time.Second {
		t.Errorf("expected slowCadence 5s, got %v", cfg.Polling.SlowCadence)
	}
	if len(cfg.Premium) != 1 || cfg.Premium[0].GpuType != "H100" {
		t.Errorf("unexpected premium rules %+v", cfg.Premium)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got '%s'", cfg.Log.Level)
	}
	if cfg.UserId != "u-1" {
		t.Errorf("expected userId u-1, got '%s'", cfg.UserId)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(model.TokenEnvVar, "")
	path := writeTempYaml(t, `
api:
  baseUrl: http://localhost:8080
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.RefreshInterval != model.DefaultRefreshInterval {
		t.Errorf("expected default refresh interval, got %v", cfg.RefreshInterval)
	}
	if cfg.Polling.FastCadence != model.DefaultFastCadence || cfg.Polling.SlowCadence != model.DefaultSlowCadence {
		t.Errorf("expected default cadences, got %+v", cfg.Polling)
	}
	if cfg.Api.PremiumBaseUrl != "http://localhost:8080" {
		t.Errorf("premium deployment should fall back to the default, got '%s'", cfg.Api.PremiumBaseUrl)
	}
	if !cfg.IsPremium(&model.Instance{Framework: "pytorch", GpuType: "H100"}) {
		t.Error("default premium rule should match pytorch on H100")
	}
	if cfg.Log.Level != model.DefaultLogLevel {
		t.Errorf("expected default log level, got '%s'", cfg.Log.Level)
	}
}

func TestLoadConfig_TokenFromEnvironment(t *testing.T) {
	t.Setenv(model.TokenEnvVar, "from-env")
	path := writeTempYaml(t, `
api:
  baseUrl: http://localhost:8080
  token: from-file
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Api.Token != "from-env" {
		t.Errorf("expected environment token to win, got '%s'", cfg.Api.Token)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeTempYaml(t, `
polling:
  fastCadence: 1s
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for config without api.baseUrl")
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	path := writeTempYaml(t, `
api:
  baseUrl: http://localhost:8080
  baseURL: http://typo
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func writeTempYaml(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// Validation Tests

func TestValidateConfig_Valid(t *testing.T) {
	yaml := `
api:
  baseUrl: https://api.example.com
  token: secret
metrics:
  influx:
    url: http://localhost:8086
    token: t
    org: ops
    bucket: instances
`
	result, err := ValidateConfigBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	if !result.IsValid() {
		t.Errorf("expected valid config, got errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateConfig_MissingBaseUrl(t *testing.T) {
	result, err := ValidateConfigBytes([]byte("api:\n  token: secret\n"))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	if result.IsValid() {
		t.Error("expected validation errors for missing baseUrl")
	}
	if !hasIssue(result.Errors, "api.baseUrl") {
		t.Error("expected error for api.baseUrl path")
	}
}

func TestValidateConfig_BadUrls(t *testing.T) {
	yaml := `
api:
  baseUrl: ftp://api.example.com
  premiumBaseUrl: "https://"
  token: secret
`
	result, err := ValidateConfigBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	if !hasIssue(result.Errors, "api.baseUrl") {
		t.Error("expected error for unsupported scheme")
	}
	if !hasIssue(result.Errors, "api.premiumBaseUrl") {
		t.Error("expected error for missing host")
	}
}

func TestValidateConfig_NegativeDurations(t *testing.T) {
	yaml := `
api:
  baseUrl: https://api.example.com
  token: secret
refreshInterval: -1m
polling:
  fastCadence: -1s
  slowCadence: -2s
`
	result, err := ValidateConfigBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	for _, path := range []string{"refreshInterval", "polling.fastCadence", "polling.slowCadence"} {
		if !hasIssue(result.Errors, path) {
			t.Errorf("expected error for %s", path)
		}
	}
}

func TestValidateConfig_Warnings(t *testing.T) {
	t.Setenv(model.TokenEnvVar, "")
	yaml := `
api:
  baseUrl: https://api.example.com
polling:
  fastCadence: 10s
  slowCadence: 1s
premium: []
`
	result, err := ValidateConfigBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	if !result.IsValid() {
		t.Errorf("warnings must not invalidate config, got errors: %v", result.Errors)
	}
	for _, path := range []string{"polling", "premium", "api.token"} {
		if !hasIssue(result.Warnings, path) {
			t.Errorf("expected warning for %s", path)
		}
	}
}

func TestValidateConfig_EmptyPremiumRule(t *testing.T) {
	yaml := `
api:
  baseUrl: https://api.example.com
  token: secret
premium:
  - framework: pytorch
  - {}
`
	result, err := ValidateConfigBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	if !hasIssue(result.Errors, "premium[1]") {
		t.Errorf("expected error for empty rule, got %v", result.Errors)
	}
	if hasIssue(result.Errors, "premium[0]") {
		t.Error("framework-only rule should be accepted")
	}
}

func TestValidateConfig_IncompleteInflux(t *testing.T) {
	yaml := `
api:
  baseUrl: https://api.example.com
  token: secret
metrics:
  influx:
    token: t
`
	result, err := ValidateConfigBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	for _, path := range []string{"metrics.influx.url", "metrics.influx.org", "metrics.influx.bucket"} {
		if !hasIssue(result.Errors, path) {
			t.Errorf("expected error for %s", path)
		}
	}
}

func TestValidateConfig_BadLogLevel(t *testing.T) {
	yaml := `
api:
  baseUrl: https://api.example.com
  token: secret
log:
  level: chatty
`
	result, err := ValidateConfigBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("ValidateConfigBytes failed: %v", err)
	}

	if !hasIssue(result.Errors, "log.level") {
		t.Error("expected error for unknown log level")
	}
}

func TestValidateConfig_Malformed(t *testing.T) {
	if _, err := ValidateConfigBytes([]byte("api: [unterminated")); err == nil {
		t.Fatal("expected parse error")
	}
}

func hasIssue(issues []ValidationIssue, path string) bool {
	for _, issue := range issues {
		if issue.Path == path {
			return true
		}
	}
	return false
}
