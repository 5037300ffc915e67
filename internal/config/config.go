// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads tunnelfetch settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TUNNELFETCH_REQUEST_URL.
const EnvPrefix = "TUNNELFETCH"

// Config holds tunnelfetch configuration.
type Config struct {
	Request RequestConfig `mapstructure:"request"`
	Tunnel  TunnelConfig  `mapstructure:"tunnel"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// RequestConfig describes the request and its retry policy.
type RequestConfig struct {
	URL           string        `mapstructure:"url"`
	Method        string        `mapstructure:"method"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryCount    int           `mapstructure:"retry_count"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// TunnelConfig holds tunnel settings.
type TunnelConfig struct {
	// IgnoreChecks issues requests whatever the reported tunnel status.
	IgnoreChecks bool `mapstructure:"ignore_checks"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       int  `mapstructure:"level"`
	Development bool `mapstructure:"development"`
}

// MetricsConfig holds the prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"url":            "request.url",
	"method":         "request.method",
	"timeout":        "request.timeout",
	"retry-count":    "request.retry_count",
	"retry-interval": "request.retry_interval",
	"direct":         "tunnel.ignore_checks",
	"log-level":      "log.level",
	"dev":            "log.development",
	"metrics-addr":   "metrics.addr",
}

// RegisterFlags defines the flags understood by Load on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file")
	fs.String("url", "", "http or https URL to fetch")
	fs.String("method", "GET", "HTTP method")
	fs.Duration("timeout", 60*time.Second, "timeout of a single call")
	fs.Int("retry-count", 5, "retries of a response asking for one")
	fs.Duration("retry-interval", time.Second, "fixed wait between retries")
	fs.Bool("direct", false, "ignore tunnel status checks")
	fs.Int("log-level", 2, "log verbosity")
	fs.Bool("dev", false, "human-readable logs")
	fs.String("metrics-addr", "", "address serving /metrics")
}

// Load reads configuration. Precedence, highest first: flags set on fs,
// environment variables with prefix TUNNELFETCH_, the config file named by
// --config, defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault("request.url", "")
	v.SetDefault("request.method", "GET")
	v.SetDefault("request.timeout", 60*time.Second)
	v.SetDefault("request.retry_count", 5)
	v.SetDefault("request.retry_interval", time.Second)
	v.SetDefault("tunnel.ignore_checks", false)
	v.SetDefault("log.level", 2)
	v.SetDefault("log.development", false)
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Request.URL == "" {
		return Config{}, fmt.Errorf("request url is required")
	}
	return c, nil
}
