package rest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/logging"
	"github.com/philcifone/blog/internal/server/feed"
	"github.com/philcifone/blog/internal/server/models"
	"github.com/philcifone/blog/internal/server/services"
	"github.com/philcifone/blog/internal/server/uploads"
)

const validToken = "valid-token"

// ---- fakes ----

type fakePosts struct {
	mu sync.Mutex

	posts   map[int64]*models.Post
	tags    []models.TagCount
	pruned  int64
	err     error
	created []services.PostInput
	updated []services.PostInput
	deleted []int64
	images  [][]byte
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: map[int64]*models.Post{}}
}

func (f *fakePosts) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created) + len(f.updated) + len(f.deleted)
}

func (f *fakePosts) List(context.Context) ([]*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Post
	for _, p := range f.posts {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePosts) Get(_ context.Context, id int64) (*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakePosts) record(in services.PostInput) {
	if in.Image != nil {
		data, _ := io.ReadAll(in.Image.Body)
		f.images = append(f.images, data)
	}
}

func (f *fakePosts) Create(_ context.Context, in services.PostInput) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.record(in)
	f.created = append(f.created, in)
	return &models.Post{ID: 42, Title: in.Title}, nil
}

func (f *fakePosts) Update(_ context.Context, id int64, in services.PostInput) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.posts[id]; !ok {
		return nil, common.ErrorNotFound
	}
	f.record(in)
	f.updated = append(f.updated, in)
	return &models.Post{ID: id, Title: in.Title}, nil
}

func (f *fakePosts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.posts, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePosts) ListTags(context.Context) ([]models.TagCount, error) {
	return f.tags, f.err
}

func (f *fakePosts) PruneTags(context.Context) (int64, error) {
	return f.pruned, f.err
}

type fakeUsers struct {
	loginErr error
}

func (f *fakeUsers) Login(_ context.Context, userName, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "token-for-" + userName, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, token string) (*models.Principal, error) {
	if token != validToken {
		return nil, common.ErrorUnauthorized
	}
	return &models.Principal{UserID: 1, UserName: "admin"}, nil
}

type fakeFeeds struct {
	err error
}

func (f *fakeFeeds) Render(_ context.Context, format feed.Format) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "feed:" + string(format), nil
}

type fakeImages struct {
	files map[string][]byte
}

func (f *fakeImages) Open(_ context.Context, name string) (*uploads.Object, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &uploads.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: "image/png",
		Size:        int64(len(data)),
		ModTime:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(context.Context) error { return f.err }

// ---- helpers ----

type testServer struct {
	*Server
	posts  *fakePosts
	users  *fakeUsers
	feeds  *fakeFeeds
	images *fakeImages
	db     *fakePinger
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	ts := &testServer{
		posts:  newFakePosts(),
		users:  &fakeUsers{},
		feeds:  &fakeFeeds{},
		images: &fakeImages{files: map[string][]byte{}},
		db:     &fakePinger{},
	}
	if opts.CORSAllowedOrigins == nil {
		opts.CORSAllowedOrigins = []string{"*"}
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts.Server = NewServer(opts, Deps{
		Posts:  ts.posts,
		Users:  ts.users,
		Feeds:  ts.feeds,
		Images: ts.images,
		DB:     ts.db,
	}, logger)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func authorize(req *http.Request) *http.Request {
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+validToken)
	return req
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
