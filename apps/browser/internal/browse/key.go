package browse

import (
	"net/url"
	"path"
	"strings"
)

// Kind is the operation a cache key belongs to.
type Kind string

const (
	KindFolderNames Kind = "folderNames"
	KindFileNames   Kind = "fileNames"
	KindFileContent Kind = "fileContent"
)

const keyNamespace = "repobrowse"

// Key is the structured identity of a cached query result.
type Key struct {
	Kind       Kind
	Project    string
	Repository string
	Path       string
	FileName   string // only set for KindFileContent
}

// String serialises the key. Every segment is query-escaped so the ":"
// separator never appears inside one; distinct keys never share a string.
func (k Key) String() string {
	parts := []string{
		keyNamespace,
		string(k.Kind),
		url.QueryEscape(k.Project),
		url.QueryEscape(k.Repository),
		url.QueryEscape(k.Path),
	}
	if k.Kind == KindFileContent {
		parts = append(parts, url.QueryEscape(k.FileName))
	}
	return strings.Join(parts, ":")
}

// normalizePath returns p rooted at "/" with duplicate and trailing
// separators removed. "" and "/" both become "/".
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// relativeName returns itemPath relative to scope, which must already be
// normalised. Items outside scope fall back to their base name.
func relativeName(scope, itemPath string) string {
	itemPath = normalizePath(itemPath)
	prefix := scope
	if prefix != "/" {
		prefix += "/"
	}
	if rest, ok := strings.CutPrefix(itemPath, prefix); ok && rest != "" {
		return rest
	}
	return path.Base(itemPath)
}
