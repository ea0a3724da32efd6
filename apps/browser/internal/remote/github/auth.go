package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

const defaultAPIURL = "https://api.github.com"

// NewTokenClient creates a *github.Client authenticated with a personal access
// token. An empty token gives an anonymous client (public repositories only).
// Pass baseURL="" for github.com, or a GitHub Enterprise / mock server URL.
func NewTokenClient(token, baseURL string) (*gogithub.Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := gogithub.NewClient(httpClient)
	if u != nil {
		c.BaseURL = u
	}
	return c, nil
}

// NewAppClient creates a *github.Client authenticated as a GitHub App
// installation. privateKeyPath is the path to the app's PEM private key.
func NewAppClient(appID, installationID int64, privateKeyPath, baseURL string) (*gogithub.Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	base := defaultAPIURL
	if u != nil {
		base = strings.TrimRight(u.String(), "/")
	}

	tr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("github app auth: %w", err)
	}
	tr.BaseURL = base

	c := gogithub.NewClient(&http.Client{Transport: tr})
	if u != nil {
		c.BaseURL = u
	}
	return c, nil
}

// parseBaseURL validates a GitHub API base URL. It returns nil for "" and
// github.com, which go-github already targets.
func parseBaseURL(baseURL string) (*url.URL, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" || baseURL == defaultAPIURL {
		return nil, nil //nolint:nilnil // nil means the go-github default
	}
	u, err := url.Parse(baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("github base url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("github base url %q: want an absolute http(s) URL", baseURL)
	}
	return u, nil
}
