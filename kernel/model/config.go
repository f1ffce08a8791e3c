package model

import (
	"strings"
	"time"
)

const (
	DefaultRefreshInterval = 3 * time.Minute
	DefaultFastCadence     = 500 * time.Millisecond
	DefaultSlowCadence     = 3 * time.Second
	DefaultLogLevel        = "info"
	TokenEnvVar            = "INSTANCECTL_TOKEN"
)

type Config struct {
	Api             ApiConfig     `yaml:"api"`
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	Polling         PollingConfig `yaml:"polling"`
	Premium         []ClassRule   `yaml:"premium"`
	Metrics         MetricsConfig `yaml:"metrics"`
	Log             LogConfig     `yaml:"log"`
	UserId          string        `yaml:"userId"`
}

type ApiConfig struct {
	BaseUrl        string `yaml:"baseUrl"`
	PremiumBaseUrl string `yaml:"premiumBaseUrl"`
	Token          string `yaml:"token"`
}

type PollingConfig struct {
	FastCadence time.Duration `yaml:"fastCadence"`
	SlowCadence time.Duration `yaml:"slowCadence"`
}

// ClassRule matches instances served by the premium (long-running) deployment. Empty fields
// match anything.
type ClassRule struct {
	Framework string `yaml:"framework"`
	GpuType   string `yaml:"gpuType"`
}

type MetricsConfig struct {
	Influx *InfluxConfig `yaml:"influx"`
}

type InfluxConfig struct {
	Url    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		RefreshInterval: DefaultRefreshInterval,
		Polling: PollingConfig{
			FastCadence: DefaultFastCadence,
			SlowCadence: DefaultSlowCadence,
		},
		Premium: []ClassRule{{Framework: FrameworkPytorch, GpuType: "H100"}},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaults.RefreshInterval
	}
	if c.Polling.FastCadence <= 0 {
		c.Polling.FastCadence = defaults.Polling.FastCadence
	}
	if c.Polling.SlowCadence <= 0 {
		c.Polling.SlowCadence = defaults.Polling.SlowCadence
	}
	if c.Premium == nil {
		c.Premium = defaults.Premium
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Api.PremiumBaseUrl == "" {
		c.Api.PremiumBaseUrl = c.Api.BaseUrl
	}
}

// IsPremium reports whether an instance belongs to the slow, long-running resource class.
func (c *Config) IsPremium(i *Instance) bool {
	if i == nil {
		return false
	}
	for _, rule := range c.Premium {
		if rule.Matches(i) {
			return true
		}
	}
	return false
}

func (r ClassRule) Matches(i *Instance) bool {
	if r.Framework == "" && r.GpuType == "" {
		return false
	}
	if r.Framework != "" && NormalizeFramework(r.Framework) != NormalizeFramework(i.Framework) {
		return false
	}
	if r.GpuType != "" && !strings.EqualFold(r.GpuType, i.GpuType) {
		return false
	}
	return true
}

// CadenceFor is the poll interval for an instance, evaluated once when polling starts.
func (c *Config) CadenceFor(i *Instance) time.Duration {
	if c.IsPremium(i) {
		return c.Polling.SlowCadence
	}
	return c.Polling.FastCadence
}

// BaseUrlFor selects the backend deployment.
func (c *Config) BaseUrlFor(premium bool) string {
	if premium && c.Api.PremiumBaseUrl != "" {
		return c.Api.PremiumBaseUrl
	}
	return c.Api.BaseUrl
}
