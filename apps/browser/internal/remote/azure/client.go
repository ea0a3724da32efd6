// Package azure implements browse.Remote against the Azure DevOps Git REST API.
package azure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
)

const apiVersion = "7.1"

// Compile-time check: *Client implements browse.Remote.
var _ browse.Remote = (*Client)(nil)

// Client talks to an Azure DevOps organisation (or a mock of one).
type Client struct {
	baseURL    string // e.g. https://dev.azure.com/myorg
	authHeader string
	httpClient *http.Client
}

// NewClient creates a client for the organisation at baseURL. pat is a
// personal access token; an empty pat sends unauthenticated requests.
func NewClient(baseURL, pat string) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if pat != "" {
		c.authHeader = "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+pat))
	}
	return c
}

type gitRepository struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Project struct {
		Name string `json:"name"`
	} `json:"project"`
}

type gitItem struct {
	Path     string `json:"path"`
	IsFolder bool   `json:"isFolder"`
}

type itemList struct {
	Count int       `json:"count"`
	Value []gitItem `json:"value"`
}

// GetRepository resolves a repository by project and name. It returns
// (nil, nil) when Azure DevOps answers 404.
func (c *Client) GetRepository(ctx context.Context, project, name string) (*browse.Repository, error) {
	u := fmt.Sprintf("%s/%s/_apis/git/repositories/%s?api-version=%s",
		c.baseURL, url.PathEscape(project), url.PathEscape(name), apiVersion)

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer func() { //nolint:errcheck // response body close errors are non-actionable after reading
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil //nolint:nilnil // caller checks nil value to detect "not found"
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d", u, resp.StatusCode)
	}

	var repo gitRepository
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return nil, fmt.Errorf("decode repository: %w", err)
	}
	return &browse.Repository{ID: repo.ID, Project: repo.Project.Name, Name: repo.Name}, nil
}

// ListItems lists scopePath and its children to the requested depth.
func (c *Client) ListItems(
	ctx context.Context,
	project, repositoryID, scopePath string,
	depth browse.RecursionLevel,
) ([]browse.Item, error) {
	q := url.Values{}
	q.Set("scopePath", scopePath)
	q.Set("recursionLevel", string(depth))
	q.Set("api-version", apiVersion)
	u := fmt.Sprintf("%s/%s/_apis/git/repositories/%s/items?%s",
		c.baseURL, url.PathEscape(project), url.PathEscape(repositoryID), q.Encode())

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer func() { //nolint:errcheck // response body close errors are non-actionable after reading
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d", u, resp.StatusCode)
	}

	var list itemList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode item listing: %w", err)
	}
	items := make([]browse.Item, 0, len(list.Value))
	for _, it := range list.Value {
		items = append(items, browse.Item{Path: it.Path, IsFolder: it.IsFolder})
	}
	return items, nil
}

// GetItemContent streams the raw bytes of a single item. The caller closes it.
func (c *Client) GetItemContent(ctx context.Context, repositoryID, itemPath string) (io.ReadCloser, error) {
	q := url.Values{}
	q.Set("path", itemPath)
	q.Set("download", "true")
	q.Set("$format", "octetStream")
	q.Set("api-version", apiVersion)
	u := fmt.Sprintf("%s/_apis/git/repositories/%s/items?%s",
		c.baseURL, url.PathEscape(repositoryID), q.Encode())

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close() //nolint:errcheck // status code is the error worth reporting
		return nil, fmt.Errorf("GET %s returned %d", u, resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	return resp, nil
}
