package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/philcifone/blog/internal/client/cache"
	"github.com/philcifone/blog/internal/client/client"
	"github.com/philcifone/blog/internal/client/config"
	"github.com/philcifone/blog/internal/client/models"
)

type fakeAPI struct {
	loggedIn    bool
	unavailable bool

	posts map[int64]*models.Post
	tags  []models.TagCount

	loginUser, loginPass string
	created              []models.PostForm
	updated              map[int64]models.PostForm
	deleted              []int64
	pruned               bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{posts: map[int64]*models.Post{}, updated: map[int64]models.PostForm{}}
}

func (f *fakeAPI) down() error {
	if f.unavailable {
		return client.ErrUnavailable
	}
	return nil
}

func (f *fakeAPI) Login(_ context.Context, user, pass string) error {
	if err := f.down(); err != nil {
		return err
	}
	if pass != "right" {
		return &client.APIError{Status: 400, Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}
	}
	f.loginUser, f.loginPass, f.loggedIn = user, pass, true
	return nil
}

func (f *fakeAPI) Logout() error {
	f.loggedIn = false
	return nil
}

func (f *fakeAPI) LoggedIn() bool { return f.loggedIn }

func (f *fakeAPI) Ping(context.Context) error { return f.down() }

func (f *fakeAPI) ListPosts(context.Context) ([]models.Post, error) {
	if err := f.down(); err != nil {
		return nil, err
	}
	res := []models.Post{}
	for _, p := range f.posts {
		res = append(res, *p)
	}
	return res, nil
}

func (f *fakeAPI) GetPost(_ context.Context, id int64) (*models.Post, error) {
	if err := f.down(); err != nil {
		return nil, err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAPI) CreatePost(_ context.Context, form models.PostForm) (int64, error) {
	if err := f.down(); err != nil {
		return 0, err
	}
	f.created = append(f.created, form)
	return int64(100 + len(f.created)), nil
}

func (f *fakeAPI) UpdatePost(_ context.Context, id int64, form models.PostForm) (int64, error) {
	if err := f.down(); err != nil {
		return 0, err
	}
	f.updated[id] = form
	return id, nil
}

func (f *fakeAPI) DeletePost(_ context.Context, id int64) error {
	if err := f.down(); err != nil {
		return err
	}
	if _, ok := f.posts[id]; !ok {
		return client.ErrNotFound
	}
	delete(f.posts, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) ListTags(context.Context) ([]models.TagCount, error) {
	if err := f.down(); err != nil {
		return nil, err
	}
	return f.tags, nil
}

func (f *fakeAPI) PruneTags(context.Context) (int64, error) {
	if err := f.down(); err != nil {
		return 0, err
	}
	f.pruned = true
	return 2, nil
}

type harness struct {
	api    *fakeAPI
	cache  *cache.Cache
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	c, err := cache.Open(context.Background(), cache.InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &harness{api: newFakeAPI(), cache: c}
}

// nopCloser keeps the shared cache open across several command runs.
type nopCloser struct{ *cache.Cache }

func (nopCloser) Close() error { return nil }

// run executes blogctl args with stdin as input and returns stdout.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	h.out.Reset()
	h.errOut.Reset()

	factory := func(_ context.Context, _ *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
		return newApp(h.api, nopCloser{h.cache}, in, out, errOut), nil
	}

	cmd := NewRootCommand(VersionInfo{Version: "test", Commit: "0"}, factory)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&h.out)
	cmd.SetErr(&h.errOut)

	err := cmd.ExecuteContext(context.Background())
	return h.out.String(), err
}
