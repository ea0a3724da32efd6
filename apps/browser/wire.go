package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
	"github.com/tilsley/repobrowse/apps/browser/internal/browse/store"
	"github.com/tilsley/repobrowse/apps/browser/internal/browse/store/pgmigrations"
	"github.com/tilsley/repobrowse/apps/browser/internal/platform/config"
	pgplatform "github.com/tilsley/repobrowse/apps/browser/internal/platform/postgres"
	"github.com/tilsley/repobrowse/apps/browser/internal/remote/azure"
	"github.com/tilsley/repobrowse/apps/browser/internal/remote/github"
	"github.com/tilsley/repobrowse/apps/browser/internal/remote/inmem"
)

const serviceName = "repobrowse"

// app is everything a command needs, plus the cleanup that releases it.
type app struct {
	svc     *browse.Service
	purger  purger
	cleanup func()
}

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	remote, err := newRemote(cfg)
	if err != nil {
		return nil, err
	}
	cache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := browse.NewService(remote, cache, browse.Config{Target: cfg.Target(), TTL: cfg.Cache.TTL}, log)
	a := &app{svc: svc, cleanup: closeCache}
	if p, ok := cache.(purger); ok {
		a.purger = p
	}
	log.Info("repobrowse wired",
		"backend", cfg.Backend,
		"cache", cfg.Cache.Backend,
		"project", cfg.Project,
		"repository", cfg.Repository,
		"ttl", cfg.Cache.TTL,
	)
	return a, nil
}

func newRemote(cfg config.Config) (browse.Remote, error) {
	switch cfg.Backend {
	case config.BackendAzure:
		return azure.NewClient(cfg.Azure.OrganizationURL, cfg.Azure.PAT), nil

	case config.BackendGitHub:
		gh := cfg.GitHub
		if gh.AppID != 0 {
			client, err := github.NewAppClient(gh.AppID, gh.InstallationID, gh.PrivateKeyPath, gh.BaseURL)
			if err != nil {
				return nil, err
			}
			return github.New(client, gh.Ref), nil
		}
		client, err := github.NewTokenClient(gh.Token, gh.BaseURL)
		if err != nil {
			return nil, err
		}
		return github.New(client, gh.Ref), nil

	case config.BackendInMem:
		m := inmem.NewInMem()
		if cfg.InMem.SeedDir == "" {
			m.AddRepository(cfg.Project, cfg.Repository)
			return m, nil
		}
		if err := m.LoadFS(cfg.Project, cfg.Repository, os.DirFS(cfg.InMem.SeedDir)); err != nil {
			return nil, fmt.Errorf("seed inmem remote from %s: %w", cfg.InMem.SeedDir, err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func newCache(ctx context.Context, cfg config.Config) (browse.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		mc := store.NewMemoryCache()
		return mc, mc.StartEviction(), nil

	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close() //nolint:errcheck // ping failure is the error worth reporting
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Cache.RedisAddr, err)
		}
		return store.NewRedisCache(rdb), func() { _ = rdb.Close() }, nil //nolint:errcheck // best-effort on shutdown

	case config.CachePostgres:
		pool, err := pgplatform.New(ctx, cfg.Cache.PostgresURL, pgmigrations.FS)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPGCache(pool), pool.Close, nil
	}
	return nil, nil, errors.New("unknown cache backend " + cfg.Cache.Backend)
}

// runPurger deletes expired rows every interval until ctx is done.
func runPurger(ctx context.Context, p purger, interval time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.Purge(ctx)
			if err != nil {
				log.Warn("cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("purged expired cache rows", "rows", n)
			}
		}
	}
}
