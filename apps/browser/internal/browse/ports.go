package browse

import (
	"context"
	"io"
	"time"
)

// Remote is the version-control backend the Service reads from.
// Implementations live in apps/browser/internal/remote.
type Remote interface {
	// GetRepository resolves a repository. It returns (nil, nil) when the
	// project or repository does not exist.
	GetRepository(ctx context.Context, project, name string) (*Repository, error)
	// ListItems lists scopePath and its children down to the given depth.
	ListItems(ctx context.Context, project, repositoryID, scopePath string, depth RecursionLevel) ([]Item, error)
	// GetItemContent streams the raw content of a single file. Callers close it.
	GetItemContent(ctx context.Context, repositoryID, itemPath string) (io.ReadCloser, error)
}

// Cache is an expiring byte store shared by all Service operations.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
