package browse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const instrName = "github.com/tilsley/repobrowse"

// fetchTimeout bounds a coalesced remote fetch, which outlives its callers' contexts.
const fetchTimeout = 2 * time.Minute

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Service is the cache-aware repository browser. It answers folder, file and
// content queries for a single Target, serving repeats from the Cache until
// their TTL elapses. A Service is safe for concurrent use.
type Service struct {
	remote Remote
	cache  Cache
	cfg    Config
	log    *slog.Logger

	// Shared by every Service derived through WithTarget.
	flight *singleflight.Group

	tracer         trace.Tracer
	lookups        metric.Int64Counter
	remoteDuration metric.Float64Histogram
}

// NewService creates a Service. A zero cfg.TTL means DefaultTTL.
func NewService(remote Remote, cache Cache, cfg Config, log *slog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	m := otel.Meter(instrName)
	lookups, _ := m.Int64Counter("repobrowse.cache.lookups",
		metric.WithDescription("Cache lookups by operation kind and result"))
	remoteDuration, _ := m.Float64Histogram("repobrowse.remote.duration",
		metric.WithDescription("Remote version-control call duration in milliseconds"),
		metric.WithUnit("ms"))

	return &Service{
		remote:         remote,
		cache:          cache,
		cfg:            cfg,
		log:            log,
		flight:         &singleflight.Group{},
		tracer:         otel.Tracer(instrName),
		lookups:        lookups,
		remoteDuration: remoteDuration,
	}
}

// WithTarget returns a Service bound to another project/repository. The
// receiver is left untouched; remote, cache and in-flight tracking are shared.
func (s *Service) WithTarget(t Target) *Service {
	cp := *s
	cp.cfg.Target = t
	return &cp
}

// Target returns the coordinates this Service browses.
func (s *Service) Target() Target {
	return s.cfg.Target
}

// TTL returns how long populated entries stay cached.
func (s *Service) TTL() time.Duration {
	return s.cfg.TTL
}

// ListSubfolders returns the folders directly below folderPath, each as its
// repository path without the leading "/", in remote listing order.
func (s *Service) ListSubfolders(ctx context.Context, folderPath string) (_ []string, err error) {
	if strings.TrimSpace(folderPath) == "" {
		return nil, InvalidArgumentError{Argument: "path"}
	}
	scope := normalizePath(folderPath)

	ctx, span := s.startSpan(ctx, "browse.ListSubfolders", scope)
	defer func() { endSpan(span, err) }()

	return s.names(ctx, s.key(KindFolderNames, scope, ""), scope, func(it Item) (string, bool) {
		if !it.IsFolder || normalizePath(it.Path) == scope {
			return "", false
		}
		return strings.TrimPrefix(it.Path, "/"), true
	})
}

// ListFiles returns the names of the files directly inside folderPath,
// relative to it, in remote listing order.
func (s *Service) ListFiles(ctx context.Context, folderPath string) (_ []string, err error) {
	if strings.TrimSpace(folderPath) == "" {
		return nil, InvalidArgumentError{Argument: "path"}
	}
	scope := normalizePath(folderPath)

	ctx, span := s.startSpan(ctx, "browse.ListFiles", scope)
	defer func() { endSpan(span, err) }()

	return s.names(ctx, s.key(KindFileNames, scope, ""), scope, func(it Item) (string, bool) {
		if it.IsFolder {
			return "", false
		}
		return relativeName(scope, it.Path), true
	})
}

// GetFileContent returns the parsed content of fileName inside folderPath.
// It returns (nil, nil) when the folder has no such file.
func (s *Service) GetFileContent(ctx context.Context, folderPath, fileName string) (_ Document, err error) {
	if strings.TrimSpace(folderPath) == "" {
		return nil, InvalidArgumentError{Argument: "path"}
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, InvalidArgumentError{Argument: "fileName"}
	}
	scope := normalizePath(folderPath)

	ctx, span := s.startSpan(ctx, "browse.GetFileContent", scope)
	span.SetAttributes(attribute.String("browse.file_name", fileName))
	defer func() { endSpan(span, err) }()

	key := s.key(KindFileContent, scope, fileName)
	var cached Document
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	v, err := s.coalesce(ctx, key, func(ctx context.Context) (any, error) {
		var cached Document
		if s.load(ctx, key, &cached) {
			return cached, nil
		}
		return s.fetchDocument(ctx, key, scope, fileName)
	})
	if err != nil {
		return nil, err
	}
	doc, _ := v.(Document)
	// Coalesced callers share one map; hand each its own.
	return maps.Clone(doc), nil
}

func (s *Service) key(kind Kind, scope, fileName string) Key {
	return Key{
		Kind:       kind,
		Project:    s.cfg.Target.Project,
		Repository: s.cfg.Target.Repository,
		Path:       scope,
		FileName:   fileName,
	}
}

// names serves a one-level listing projection from cache, or fetches,
// projects and caches it.
func (s *Service) names(ctx context.Context, key Key, scope string, pick func(Item) (string, bool)) ([]string, error) {
	var cached []string
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	v, err := s.coalesce(ctx, key, func(ctx context.Context) (any, error) {
		var cached []string
		if s.load(ctx, key, &cached) {
			return cached, nil
		}
		_, items, err := s.listScope(ctx, scope)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(items))
		for _, it := range items {
			if name, ok := pick(it); ok {
				names = append(names, name)
			}
		}
		s.store(ctx, key, names)
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	// Coalesced callers share one slice; hand each its own.
	return slices.Clone(v.([]string)), nil
}

// coalesce runs fetch once for all concurrent callers of key. The fetch is
// detached from the caller that started it, so one caller cancelling cannot
// fail the others; each caller still stops waiting when its own ctx ends.
// fetch re-checks the cache because a caller that missed just before an
// earlier flight finished would otherwise start a redundant one.
func (s *Service) coalesce(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	ch := s.flight.DoChan(key.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return fetch(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *Service) fetchDocument(ctx context.Context, key Key, scope, fileName string) (Document, error) {
	repo, items, err := s.listScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.IsFolder || relativeName(scope, it.Path) != fileName {
			continue
		}
		doc, err := s.readDocument(ctx, repo.ID, it.Path, fileName)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, doc)
		return doc, nil
	}
	s.log.Debug("file not found in folder", "path", scope, "fileName", fileName)
	return nil, nil
}

func (s *Service) readDocument(ctx context.Context, repositoryID, itemPath, fileName string) (Document, error) {
	start := time.Now()
	rc, err := s.remote.GetItemContent(ctx, repositoryID, itemPath)
	if err != nil {
		s.observe(ctx, "get_item_content", start)
		return nil, fmt.Errorf("get content of %q: %w", itemPath, err)
	}
	defer rc.Close() //nolint:errcheck // close errors on readers are non-actionable

	data, err := io.ReadAll(rc)
	s.observe(ctx, "get_item_content", start)
	if err != nil {
		return nil, fmt.Errorf("read content of %q: %w", itemPath, err)
	}

	doc, err := ParseDocument(fileName, bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, MalformedContentError{Path: itemPath, Err: err}
	}
	return doc, nil
}

// listScope resolves the configured repository and lists scope one level deep.
func (s *Service) listScope(ctx context.Context, scope string) (*Repository, []Item, error) {
	t := s.cfg.Target

	start := time.Now()
	repo, err := s.remote.GetRepository(ctx, t.Project, t.Repository)
	s.observe(ctx, "get_repository", start)
	if err != nil {
		return nil, nil, fmt.Errorf("get repository %q in project %q: %w", t.Repository, t.Project, err)
	}
	if repo == nil {
		return nil, nil, RepositoryNotFoundError{Project: t.Project, Repository: t.Repository}
	}

	start = time.Now()
	items, err := s.remote.ListItems(ctx, t.Project, repo.ID, scope, RecursionOneLevel)
	s.observe(ctx, "list_items", start)
	if err != nil {
		return nil, nil, fmt.Errorf("list items in %q: %w", scope, err)
	}
	return repo, items, nil
}

// lookup decodes a live cache entry into dst and records the outcome.
// Backend failures count as a miss.
func (s *Service) lookup(ctx context.Context, key Key, dst any) bool {
	result := s.read(ctx, key, dst)
	s.log.Debug("cache "+result, "key", key.String())
	s.count(ctx, key.Kind, result)
	return result == "hit"
}

// load is lookup without metrics, for the re-check inside a flight.
func (s *Service) load(ctx context.Context, key Key, dst any) bool {
	return s.read(ctx, key, dst) == "hit"
}

func (s *Service) read(ctx context.Context, key Key, dst any) string {
	k := key.String()
	data, ok, err := s.cache.Get(ctx, k)
	if err != nil {
		s.log.Warn("cache get failed", "key", k, "error", err)
		return "error"
	}
	if !ok {
		return "miss"
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Warn("cache entry undecodable", "key", k, "error", err)
		return "error"
	}
	return "hit"
}

func (s *Service) store(ctx context.Context, key Key, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache encode failed", "key", key.String(), "error", err)
		return
	}
	if err := s.cache.Set(ctx, key.String(), data, s.cfg.TTL); err != nil {
		s.log.Warn("cache set failed", "key", key.String(), "error", err)
	}
}

func (s *Service) count(ctx context.Context, kind Kind, result string) {
	s.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("result", result),
	))
}

func (s *Service) observe(ctx context.Context, call string, start time.Time) {
	s.remoteDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("call", call)))
}

func (s *Service) startSpan(ctx context.Context, name, scope string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("browse.project", s.cfg.Target.Project),
		attribute.String("browse.repository", s.cfg.Target.Repository),
		attribute.String("browse.path", scope),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
