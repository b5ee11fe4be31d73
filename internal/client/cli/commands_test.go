package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philcifone/blog/internal/client/models"
)

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := getPassword
	t.Cleanup(func() { getPassword = old })
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
}

func samplePost(id int64, title string) *models.Post {
	created := time.Date(2025, 4, int(id), 9, 0, 0, 0, time.UTC)
	return &models.Post{ID: id, Title: title, Content: "body of " + title, CreatedAt: created, UpdatedAt: created, Tags: []string{"go"}}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	stubPassword(t, "right")

	out, err := h.run(t, "admin\n", "login")
	require.NoError(t, err)
	assert.Equal(t, "logged in as admin\n", out)
	assert.Equal(t, "admin", h.api.loginUser)
	assert.Equal(t, "right", h.api.loginPass)
	assert.Contains(t, h.errOut.String(), "Username")
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	stubPassword(t, "wrong")

	_, err := h.run(t, "", "login", "-u", "admin")
	require.EqualError(t, err, "invalid username or password")
	assert.False(t, h.api.loggedIn)
}

func TestLogout_ClearsCache(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true
	ctx := context.Background()
	require.NoError(t, h.cache.Replace(ctx, []models.Post{*samplePost(1, "a")}))

	out, err := h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Equal(t, "logged out\n", out)
	assert.False(t, h.api.loggedIn)

	list, err := h.cache.Posts(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_OnlineRefreshesCache(t *testing.T) {
	h := newHarness(t)
	h.api.posts[1] = samplePost(1, "Hello world")

	out, err := h.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello world")
	assert.Contains(t, out, "ID")

	cached, err := h.cache.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Hello world", cached[0].Title)
}

func TestList_FallsBackToCacheWhenUnavailable(t *testing.T) {
	h := newHarness(t)
	h.api.posts[1] = samplePost(1, "Cached one")
	_, err := h.run(t, "", "list")
	require.NoError(t, err)

	h.api.unavailable = true
	h.api.posts = map[int64]*models.Post{}

	out, err := h.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cached one")
	assert.Contains(t, h.errOut.String(), "server unavailable")
	assert.Contains(t, h.errOut.String(), "last synced")
}

func TestList_OfflineNeverSynced(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "list", "--offline")
	require.NoError(t, err)
	assert.Equal(t, "no posts\n", out)
	assert.Contains(t, h.errOut.String(), "never synced")
}

func TestShow(t *testing.T) {
	h := newHarness(t)
	p := samplePost(3, "Third")
	img := "/uploads/x.png"
	p.ImagePath = &img
	p.Excerpt = "short"
	h.api.posts[3] = p

	out, err := h.run(t, "", "show", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "# Third")
	assert.Contains(t, out, "image:   /uploads/x.png")
	assert.Contains(t, out, "> short")
	assert.Contains(t, out, "body of Third")

	h.api.unavailable = true
	out, err = h.run(t, "", "show", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "# Third")

	_, err = h.run(t, "", "show", "4")
	require.EqualError(t, err, "post 4 is not in the cache")
}

func TestShow_NotFoundAndBadID(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "show", "9")
	require.EqualError(t, err, "post 9 not found")

	_, err = h.run(t, "", "show", "abc")
	require.EqualError(t, err, `invalid post id "abc"`)

	_, err = h.run(t, "", "show", "0")
	require.Error(t, err)
}

func TestWritesRequireLogin(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"create", "-t", "T", "-c", "C"},
		{"update", "1", "-t", "T"},
		{"delete", "1", "-y"},
		{"prune-tags"},
	} {
		_, err := h.run(t, "", args...)
		require.ErrorIs(t, err, errNotLoggedIn, "%v", args)
	}
	assert.Empty(t, h.api.created)
	assert.Empty(t, h.api.updated)
	assert.Empty(t, h.api.deleted)
	assert.False(t, h.api.pruned)
}

func TestCreate_FromFlags(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true

	out, err := h.run(t, "", "create", "-t", "Title", "-c", "Body", "--tags", "go, sql", "-e", "ex", "-i", "/tmp/a.png")
	require.NoError(t, err)
	assert.Equal(t, "created post 101\n", out)
	require.Len(t, h.api.created, 1)
	assert.Equal(t, models.PostForm{Title: "Title", Content: "Body", Excerpt: "ex", Tags: "go, sql", ImageFile: "/tmp/a.png"}, h.api.created[0])
}

func TestCreate_Prompts(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true

	_, err := h.run(t, "My title\nline one\nline two\n\n", "create")
	require.NoError(t, err)
	require.Len(t, h.api.created, 1)
	assert.Equal(t, "My title", h.api.created[0].Title)
	assert.Equal(t, "line one\nline two", h.api.created[0].Content)
}

func TestCreate_ContentFile(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true
	path := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(path, []byte("# from file\n"), 0o600))

	_, err := h.run(t, "", "create", "-t", "T", "--content-file", path)
	require.NoError(t, err)
	assert.Equal(t, "# from file\n", h.api.created[0].Content)

	_, err = h.run(t, "", "create", "-t", "T", "-c", "x", "--content-file", path)
	require.Error(t, err)
}

func TestUpdate_KeepsUnchangedFields(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true
	p := samplePost(5, "Old title")
	p.Excerpt = "old excerpt"
	p.Tags = []string{"go", "sql"}
	h.api.posts[5] = p

	out, err := h.run(t, "", "update", "5", "-t", "New title", "--created-at", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "updated post 5\n", out)

	assert.Equal(t, models.PostForm{
		Title:     "New title",
		Content:   "body of Old title",
		Excerpt:   "old excerpt",
		Tags:      "go, sql",
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, h.api.updated[5])
}

func TestUpdate_ClearTagsAndBadDate(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true
	h.api.posts[5] = samplePost(5, "T")

	_, err := h.run(t, "", "update", "5", "--tags", "")
	require.NoError(t, err)
	assert.Equal(t, "", h.api.updated[5].Tags)

	_, err = h.run(t, "", "update", "5", "--created-at", "yesterday")
	require.Error(t, err)

	_, err = h.run(t, "", "update", "6", "-t", "x")
	require.EqualError(t, err, "post 6 not found")
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true
	h.api.posts[2] = samplePost(2, "Doomed")
	require.NoError(t, h.cache.Put(context.Background(), samplePost(2, "Doomed")))

	out, err := h.run(t, "n\n", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, "aborted\n", out)
	assert.Empty(t, h.api.deleted)

	out, err = h.run(t, "y\n", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, "deleted post 2\n", out)
	assert.Equal(t, []int64{2}, h.api.deleted)

	_, err = h.cache.Post(context.Background(), 2)
	require.Error(t, err)

	_, err = h.run(t, "", "delete", "2", "--yes")
	require.EqualError(t, err, "post 2 not found")
}

func TestTagsAndPrune(t *testing.T) {
	h := newHarness(t)
	h.api.loggedIn = true

	out, err := h.run(t, "", "tags")
	require.NoError(t, err)
	assert.Equal(t, "no tags\n", out)

	h.api.tags = []models.TagCount{{Name: "go", Count: 3}}
	out, err = h.run(t, "", "tags")
	require.NoError(t, err)
	assert.Contains(t, out, "go")
	assert.Contains(t, out, "3")

	out, err = h.run(t, "", "prune-tags")
	require.NoError(t, err)
	assert.Equal(t, "removed 2 unused tag(s)\n", out)
	assert.True(t, h.api.pruned)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	h.api.unavailable = true

	out, err := h.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "server:    unavailable")
	assert.Contains(t, out, "logged in: no")
	assert.Contains(t, out, "synced:    never")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
