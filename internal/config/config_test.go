// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(flags(t, "--url", "https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", c.Request.URL)
	assert.Equal(t, "GET", c.Request.Method)
	assert.Equal(t, 5, c.Request.RetryCount)
	assert.Equal(t, time.Second, c.Request.RetryInterval)
	assert.False(t, c.Tunnel.IgnoreChecks)
	assert.Equal(t, 2, c.Log.Level)
}

func TestLoadFlags(t *testing.T) {
	c, err := Load(flags(t, "--url", "https://example.com", "--retry-count", "2", "--retry-interval", "250ms", "--direct"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Request.RetryCount)
	assert.Equal(t, 250*time.Millisecond, c.Request.RetryInterval)
	assert.True(t, c.Tunnel.IgnoreChecks)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TUNNELFETCH_REQUEST_URL", "https://env.example.com")
	t.Setenv("TUNNELFETCH_REQUEST_RETRY_COUNT", "9")
	c, err := Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", c.Request.URL)
	assert.Equal(t, 9, c.Request.RetryCount)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunnelfetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request:\n  url: https://file.example.com\n  retry_interval: 3s\nmetrics:\n  addr: :9090\n"), 0o600))
	c, err := Load(flags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", c.Request.URL)
	assert.Equal(t, 3*time.Second, c.Request.RetryInterval)
	assert.Equal(t, ":9090", c.Metrics.Addr)
}

func TestLoadRequiresURL(t *testing.T) {
	_, err := Load(flags(t))
	assert.Error(t, err)
}
