// Package config loads repobrowse settings from an optional YAML file and
// environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// Remote backends.
const (
	BackendAzure  = "azure"
	BackendGitHub = "github"
	BackendInMem  = "inmem"
)

// Cache backends.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
)

// Config is the full set of repobrowse settings.
type Config struct {
	Port       string `yaml:"port"`
	Project    string `yaml:"project"`
	Repository string `yaml:"repository"`
	Backend    string `yaml:"backend"`

	Azure  AzureConfig  `yaml:"azure"`
	GitHub GitHubConfig `yaml:"github"`
	InMem  InMemConfig  `yaml:"inmem"`
	Cache  CacheConfig  `yaml:"cache"`
	OTel   OTelConfig   `yaml:"otel"`
}

// AzureConfig points at an Azure DevOps organisation.
type AzureConfig struct {
	OrganizationURL string `yaml:"organizationUrl"`
	PAT             string `yaml:"pat"`
}

// GitHubConfig selects token or App authentication. App auth is used when
// AppID is set.
type GitHubConfig struct {
	Token          string `yaml:"token"`
	BaseURL        string `yaml:"baseUrl"`
	Ref            string `yaml:"ref"`
	AppID          int64  `yaml:"appId"`
	InstallationID int64  `yaml:"installationId"`
	PrivateKeyPath string `yaml:"privateKeyPath"`
}

// InMemConfig seeds the in-memory backend from a local directory.
type InMemConfig struct {
	SeedDir string `yaml:"seedDir"`
}

// CacheConfig selects and tunes the cache store.
type CacheConfig struct {
	Backend     string        `yaml:"backend"`
	TTL         time.Duration `yaml:"ttl"`
	RedisAddr   string        `yaml:"redisAddr"`
	PostgresURL string        `yaml:"postgresUrl"`
}

// OTelConfig toggles telemetry export.
type OTelConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:    "8080",
		Backend: BackendAzure,
		Cache: CacheConfig{
			Backend:   CacheMemory,
			TTL:       browse.DefaultTTL,
			RedisAddr: "localhost:6379",
		},
	}
}

// Load reads path (skipped when empty), applies environment overrides via
// getenv and validates the result. A nil getenv means os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	envOr := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	envOr("PORT", &c.Port)
	envOr("REPOBROWSE_PROJECT", &c.Project)
	envOr("REPOBROWSE_REPOSITORY", &c.Repository)
	envOr("REPOBROWSE_BACKEND", &c.Backend)
	envOr("AZURE_DEVOPS_ORG_URL", &c.Azure.OrganizationURL)
	envOr("AZURE_DEVOPS_PAT", &c.Azure.PAT)
	envOr("GITHUB_TOKEN", &c.GitHub.Token)
	envOr("GITHUB_API_URL", &c.GitHub.BaseURL)
	envOr("GITHUB_REF", &c.GitHub.Ref)
	envOr("GITHUB_PRIVATE_KEY_PATH", &c.GitHub.PrivateKeyPath)
	envOr("INMEM_SEED_DIR", &c.InMem.SeedDir)
	envOr("CACHE_BACKEND", &c.Cache.Backend)
	envOr("REDIS_ADDR", &c.Cache.RedisAddr)
	envOr("POSTGRES_URL", &c.Cache.PostgresURL)
	envOr("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTel.Endpoint)

	if v := getenv("GITHUB_APP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GITHUB_APP_ID: %w", err)
		}
		c.GitHub.AppID = id
	}
	if v := getenv("GITHUB_INSTALLATION_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GITHUB_INSTALLATION_ID: %w", err)
		}
		c.GitHub.InstallationID = id
	}
	if v := getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.Cache.TTL = ttl
	}
	if v := getenv("OTEL_ENABLED"); v != "" {
		c.OTel.Enabled = v == "true"
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.Project == "" {
		return errors.New("project is required")
	}
	if c.Repository == "" {
		return errors.New("repository is required")
	}

	switch c.Backend {
	case BackendAzure:
		if c.Azure.OrganizationURL == "" {
			return errors.New("azure.organizationUrl is required for the azure backend")
		}
	case BackendGitHub:
		if c.GitHub.AppID != 0 && (c.GitHub.InstallationID == 0 || c.GitHub.PrivateKeyPath == "") {
			return errors.New("github.installationId and github.privateKeyPath are required with github.appId")
		}
	case BackendInMem:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redisAddr is required for the redis cache")
		}
	case CachePostgres:
		if c.Cache.PostgresURL == "" {
			return errors.New("cache.postgresUrl is required for the postgres cache")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	return nil
}

// Target returns the browse coordinates.
func (c Config) Target() browse.Target {
	return browse.Target{Project: c.Project, Repository: c.Repository}
}
