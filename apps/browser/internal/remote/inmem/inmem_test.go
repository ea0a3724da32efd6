package inmem_test

import (
	"context"
	"io"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repobrowse/apps/browser/internal/browse"
	"github.com/tilsley/repobrowse/apps/browser/internal/remote/inmem"
)

func seeded(t *testing.T) *inmem.InMem {
	t.Helper()
	m := inmem.NewInMem()
	require.NoError(t, m.LoadFS("proj", "repo", fstest.MapFS{
		"folder1/readme.md":       {Data: []byte("# folder1")},
		"folder2/file1.json":      {Data: []byte(`{"a":1}`)},
		"folder2/file2.json":      {Data: []byte(`{"b":2}`)},
		"folder2/nested/deep.yml": {Data: []byte("c: 3")},
		"top.json":                {Data: []byte(`{}`)},
	}))
	return m
}

func TestGetRepository(t *testing.T) {
	m := seeded(t)

	repo, err := m.GetRepository(context.Background(), "proj", "repo")
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "proj/repo", repo.ID)

	missing, err := m.GetRepository(context.Background(), "proj", "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Equal(t, 2, m.Calls("GetRepository"))
}

func TestListItems_Root(t *testing.T) {
	m := seeded(t)

	items, err := m.ListItems(context.Background(), "proj", "proj/repo", "/", browse.RecursionOneLevel)

	require.NoError(t, err)
	assert.Equal(t, []browse.Item{
		{Path: "/", IsFolder: true},
		{Path: "/folder1", IsFolder: true},
		{Path: "/folder2", IsFolder: true},
		{Path: "/top.json"},
	}, items)
}

func TestListItems_Folder(t *testing.T) {
	m := seeded(t)

	items, err := m.ListItems(context.Background(), "proj", "proj/repo", "/folder2", browse.RecursionOneLevel)

	require.NoError(t, err)
	assert.Equal(t, []browse.Item{
		{Path: "/folder2", IsFolder: true},
		{Path: "/folder2/file1.json"},
		{Path: "/folder2/file2.json"},
		{Path: "/folder2/nested", IsFolder: true},
	}, items)
}

func TestListItems_MissingFolder(t *testing.T) {
	m := seeded(t)

	_, err := m.ListItems(context.Background(), "proj", "proj/repo", "/nope", browse.RecursionOneLevel)

	assert.Error(t, err)
}

func TestGetItemContent(t *testing.T) {
	m := seeded(t)

	rc, err := m.GetItemContent(context.Background(), "proj/repo", "/folder2/file2.json")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)

	assert.Equal(t, `{"b":2}`, string(body))
}
