// Package inmem is an in-memory browse.Remote for tests and local development.
package inmem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// Compile-time check: *InMem implements browse.Remote.
var _ browse.Remote = (*InMem)(nil)

type repoKey struct {
	project string
	name    string
}

// InMem holds any number of repositories, each a flat map of file path to content.
type InMem struct {
	mu    sync.Mutex
	repos map[repoKey]map[string]string // "/dir/file" -> content
	calls map[string]int
}

// NewInMem creates an empty InMem remote.
func NewInMem() *InMem {
	return &InMem{
		repos: make(map[repoKey]map[string]string),
		calls: make(map[string]int),
	}
}

// AddRepository registers an empty repository.
func (m *InMem) AddRepository(project, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := repoKey{project, name}
	if m.repos[k] == nil {
		m.repos[k] = make(map[string]string)
	}
}

// SetFile seeds a file, creating the repository if needed.
func (m *InMem) SetFile(project, name, filePath, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := repoKey{project, name}
	if m.repos[k] == nil {
		m.repos[k] = make(map[string]string)
	}
	m.repos[k][clean(filePath)] = content
}

// LoadFS seeds a repository with every regular file in fsys.
func (m *InMem) LoadFS(project, name string, fsys fs.FS) error {
	m.AddRepository(project, name)
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		m.SetFile(project, name, p, string(data))
		return nil
	})
}

// Calls returns how many times the named method has been invoked.
func (m *InMem) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// GetRepository returns (nil, nil) for repositories that were never added.
func (m *InMem) GetRepository(_ context.Context, project, name string) (*browse.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetRepository"]++
	if _, ok := m.repos[repoKey{project, name}]; !ok {
		return nil, nil //nolint:nilnil // caller checks nil value to detect "not found"
	}
	return &browse.Repository{ID: project + "/" + name, Project: project, Name: name}, nil
}

// ListItems returns scopePath followed by its immediate children, folders
// and files sorted by path. Folders exist implicitly above seeded files.
func (m *InMem) ListItems(
	_ context.Context,
	_, repositoryID, scopePath string,
	depth browse.RecursionLevel,
) ([]browse.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ListItems"]++
	if depth != browse.RecursionOneLevel {
		return nil, fmt.Errorf("recursion level %q is not supported", depth)
	}
	files, err := m.repo(repositoryID)
	if err != nil {
		return nil, err
	}

	scope := clean(scopePath)
	if _, ok := files[scope]; ok {
		return []browse.Item{{Path: scope}}, nil
	}

	prefix := scope
	if prefix != "/" {
		prefix += "/"
	}
	children := make(map[string]bool) // child path -> is folder
	for p := range files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		name, _, nested := strings.Cut(rest, "/")
		children[prefix+name] = children[prefix+name] || nested
	}
	if len(children) == 0 && scope != "/" {
		return nil, fmt.Errorf("path %s not found in %s", scope, repositoryID)
	}

	paths := make([]string, 0, len(children))
	for p := range children {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	items := make([]browse.Item, 0, len(paths)+1)
	items = append(items, browse.Item{Path: scope, IsFolder: true})
	for _, p := range paths {
		items = append(items, browse.Item{Path: p, IsFolder: children[p]})
	}
	return items, nil
}

// GetItemContent returns the seeded content of a file.
func (m *InMem) GetItemContent(_ context.Context, repositoryID, itemPath string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetItemContent"]++
	files, err := m.repo(repositoryID)
	if err != nil {
		return nil, err
	}
	content, ok := files[clean(itemPath)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s%s", repositoryID, itemPath)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// repo looks up files by the "project/name" id. Callers hold the lock.
func (m *InMem) repo(repositoryID string) (map[string]string, error) {
	project, name, _ := strings.Cut(repositoryID, "/")
	files, ok := m.repos[repoKey{project, name}]
	if !ok {
		return nil, fmt.Errorf("repository %q not found", repositoryID)
	}
	return files, nil
}

func clean(p string) string {
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}
