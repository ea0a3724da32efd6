// Package github implements browse.Remote using the official go-github
// library. The browse "project" is the repository owner (user or organisation).
// Build the *github.Client with NewTokenClient or NewAppClient.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

// Compile-time check: *Adapter implements browse.Remote.
var _ browse.Remote = (*Adapter)(nil)

// Adapter wraps a go-github client. Repository IDs it hands out are the
// "owner/name" full name, so content reads need no second lookup.
type Adapter struct {
	gh  *gogithub.Client
	ref string // branch, tag or SHA; empty means the default branch
}

// New creates an Adapter from an authenticated *github.Client.
func New(gh *gogithub.Client, ref string) *Adapter {
	return &Adapter{gh: gh, ref: ref}
}

// GetRepository resolves owner/name. It returns (nil, nil) when GitHub
// answers 404, which is also what it answers for private repositories the
// credentials cannot see.
func (a *Adapter) GetRepository(ctx context.Context, owner, name string) (*browse.Repository, error) {
	repo, _, err := a.gh.Repositories.Get(ctx, owner, name)
	if isNotFound(err) {
		return nil, nil //nolint:nilnil // caller checks nil value to detect "not found"
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}
	return &browse.Repository{
		ID:      repo.GetFullName(),
		Project: repo.GetOwner().GetLogin(),
		Name:    repo.GetName(),
	}, nil
}

// ListItems lists scopePath one level deep through the contents API. Like a
// one-level Azure DevOps listing, the scope itself is the first item. Any
// depth other than RecursionOneLevel is rejected.
func (a *Adapter) ListItems(
	ctx context.Context,
	_, repositoryID, scopePath string,
	depth browse.RecursionLevel,
) ([]browse.Item, error) {
	if depth != browse.RecursionOneLevel {
		return nil, fmt.Errorf("recursion level %q is not supported", depth)
	}
	owner, name, err := splitFullName(repositoryID)
	if err != nil {
		return nil, err
	}

	file, dir, _, err := a.gh.Repositories.GetContents(ctx, owner, name, apiPath(scopePath), a.contentOpts())
	if err != nil {
		return nil, fmt.Errorf("get contents %s%s: %w", repositoryID, scopePath, err)
	}
	if file != nil {
		return []browse.Item{{Path: rooted(file.GetPath())}}, nil
	}

	items := make([]browse.Item, 0, len(dir)+1)
	items = append(items, browse.Item{Path: scopePath, IsFolder: true})
	for _, entry := range dir {
		items = append(items, browse.Item{
			Path:     rooted(entry.GetPath()),
			IsFolder: entry.GetType() == "dir",
		})
	}
	return items, nil
}

// GetItemContent returns the decoded content of a file. Files too large for
// the contents API (encoding "none") are streamed from their download URL.
func (a *Adapter) GetItemContent(ctx context.Context, repositoryID, itemPath string) (io.ReadCloser, error) {
	owner, name, err := splitFullName(repositoryID)
	if err != nil {
		return nil, err
	}

	fc, _, _, err := a.gh.Repositories.GetContents(ctx, owner, name, apiPath(itemPath), a.contentOpts())
	if err != nil {
		return nil, fmt.Errorf("get contents %s%s: %w", repositoryID, itemPath, err)
	}
	if fc == nil {
		return nil, fmt.Errorf("path %s is a directory, not a file", itemPath)
	}

	if fc.GetEncoding() == "none" {
		rc, _, err := a.gh.Repositories.DownloadContents(ctx, owner, name, apiPath(itemPath), a.contentOpts())
		if err != nil {
			return nil, fmt.Errorf("download %s%s: %w", repositoryID, itemPath, err)
		}
		return rc, nil
	}

	content, err := fc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content %s: %w", itemPath, err)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (a *Adapter) contentOpts() *gogithub.RepositoryContentGetOptions {
	if a.ref == "" {
		return nil
	}
	return &gogithub.RepositoryContentGetOptions{Ref: a.ref}
}

func isNotFound(err error) bool {
	var ghErr *gogithub.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

func splitFullName(repositoryID string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repositoryID, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("repository id %q is not owner/name", repositoryID)
	}
	return owner, name, nil
}

// apiPath converts a slash-rooted browse path to the contents API form.
func apiPath(p string) string {
	return strings.Trim(p, "/")
}

func rooted(p string) string {
	return "/" + strings.TrimPrefix(p, "/")
}
