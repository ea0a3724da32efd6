package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
	"github.com/tilsley/repobrowse/apps/browser/internal/platform/config"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "repobrowse.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_FromFile(t *testing.T) {
	p := writeFile(t, `
project: platform
repository: config-repo
backend: github
github:
  token: ghp_x
  ref: main
cache:
  backend: redis
  ttl: 5m
  redisAddr: redis:6379
`)

	cfg, err := config.Load(p, env(nil))

	require.NoError(t, err)
	assert.Equal(t, browse.Target{Project: "platform", Repository: "config-repo"}, cfg.Target())
	assert.Equal(t, config.BackendGitHub, cfg.Backend)
	assert.Equal(t, "main", cfg.GitHub.Ref)
	assert.Equal(t, config.CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, "project: a\nrepository: b\nbackend: inmem\n")

	cfg, err := config.Load(p, env(map[string]string{
		"REPOBROWSE_REPOSITORY": "other",
		"PORT":                  "9000",
		"CACHE_TTL":             "90s",
		"OTEL_ENABLED":          "true",
	}))

	require.NoError(t, err)
	assert.Equal(t, "other", cfg.Repository)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.OTel.Enabled)
}

func TestLoad_DefaultTTL(t *testing.T) {
	cfg, err := config.Load("", env(map[string]string{
		"REPOBROWSE_PROJECT":    "p",
		"REPOBROWSE_REPOSITORY": "r",
		"AZURE_DEVOPS_ORG_URL":  "https://dev.azure.com/acme",
	}))

	require.NoError(t, err)
	assert.Equal(t, browse.DefaultTTL, cfg.Cache.TTL)
	assert.Equal(t, config.CacheMemory, cfg.Cache.Backend)
}

func TestLoad_Errors(t *testing.T) {
	base := map[string]string{
		"REPOBROWSE_PROJECT":    "p",
		"REPOBROWSE_REPOSITORY": "r",
		"REPOBROWSE_BACKEND":    "inmem",
	}
	with := func(k, v string) map[string]string {
		m := map[string]string{k: v}
		for bk, bv := range base {
			if _, ok := m[bk]; !ok {
				m[bk] = bv
			}
		}
		return m
	}

	cases := map[string]map[string]string{
		"missing project":       with("REPOBROWSE_PROJECT", ""),
		"unknown backend":       with("REPOBROWSE_BACKEND", "svn"),
		"azure without org":     with("REPOBROWSE_BACKEND", "azure"),
		"bad ttl":               with("CACHE_TTL", "soon"),
		"negative ttl":          with("CACHE_TTL", "-1m"),
		"postgres without url":  with("CACHE_BACKEND", "postgres"),
		"unknown cache backend": with("CACHE_BACKEND", "memcached"),
		"bad app id":            with("GITHUB_APP_ID", "abc"),
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load("", env(vars))
			assert.Error(t, err)
		})
	}
}

func TestLoad_GitHubAppNeedsInstallation(t *testing.T) {
	_, err := config.Load("", env(map[string]string{
		"REPOBROWSE_PROJECT":    "acme",
		"REPOBROWSE_REPOSITORY": "config",
		"REPOBROWSE_BACKEND":    "github",
		"GITHUB_APP_ID":         "42",
	}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "installationId")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.Error(t, err)
}
