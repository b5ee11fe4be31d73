package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/dbx"
	"github.com/philcifone/blog/internal/logging"
	"github.com/philcifone/blog/internal/server/models"
	postsrepo "github.com/philcifone/blog/internal/server/repositories/posts"
	tagsrepo "github.com/philcifone/blog/internal/server/repositories/tags"
	usersrepo "github.com/philcifone/blog/internal/server/repositories/users"
	"github.com/philcifone/blog/internal/server/uploads"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// memStore is an in-memory stand-in for the three repositories. It ignores
// the DBTX it is bound to.
type memStore struct {
	mu sync.Mutex

	posts      map[int64]*models.Post
	nextPostID int64
	clock      time.Time
	step       time.Duration

	tagIDs    map[string]int64
	tagNames  map[int64]string
	nextTagID int64
	links     map[int64]map[int64]int // post -> tag -> position
	tagCalls  []string

	users map[string]*models.User

	failEnsure    string
	failCreateErr error
}

func newMemStore() *memStore {
	return &memStore{
		posts:    map[int64]*models.Post{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		step:     time.Second,
		tagIDs:   map[string]int64{},
		tagNames: map[int64]string{},
		links:    map[int64]map[int64]int{},
		users:    map[string]*models.User{},
	}
}

func (m *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memStore) Users(dbx.DBTX) usersrepo.Repository          { return memUsers{m} }
func (m *memStore) Posts(dbx.DBTX) postsrepo.Repository          { return memPosts{m} }
func (m *memStore) Tags(dbx.DBTX) tagsrepo.Repository            { return memTags{m} }

func (m *memStore) tagsOf(postID int64) []string {
	type pair struct {
		name string
		pos  int
		id   int64
	}
	var ps []pair
	for tagID, pos := range m.links[postID] {
		ps = append(ps, pair{m.tagNames[tagID], pos, tagID})
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].pos != ps[j].pos {
			return ps[i].pos < ps[j].pos
		}
		return ps[i].id < ps[j].id
	})
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.name)
	}
	return out
}

func (m *memStore) copyPost(p *models.Post) *models.Post {
	c := *p
	c.Tags = m.tagsOf(p.ID)
	return &c
}

type memPosts struct{ m *memStore }

func (r memPosts) List(ctx context.Context, limit int) ([]*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]*models.Post, 0, len(r.m.posts))
	for _, p := range r.m.posts {
		out = append(out, r.m.copyPost(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memPosts) Get(ctx context.Context, id int64) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.m.copyPost(p), nil
}

func (r memPosts) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failCreateErr != nil {
		return nil, r.m.failCreateErr
	}
	r.m.nextPostID++
	r.m.clock = r.m.clock.Add(r.m.step)
	post.ID = r.m.nextPostID
	post.CreatedAt = r.m.clock
	post.UpdatedAt = r.m.clock
	stored := *post
	r.m.posts[post.ID] = &stored
	return post, nil
}

func (r memPosts) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[post.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	r.m.clock = r.m.clock.Add(r.m.step)
	p.Title, p.Content, p.Excerpt = post.Title, post.Content, post.Excerpt
	if post.ImagePath != "" {
		p.ImagePath = post.ImagePath
	}
	if !post.CreatedAt.IsZero() {
		p.CreatedAt = post.CreatedAt
	}
	p.UpdatedAt = r.m.clock
	return r.m.copyPost(p), nil
}

func (r memPosts) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[id]; !ok {
		return common.ErrorNotFound
	}
	if len(r.m.links[id]) > 0 {
		return errors.New("foreign key violation: post_tags still reference post")
	}
	delete(r.m.posts, id)
	return nil
}

type memTags struct{ m *memStore }

func (r memTags) Ensure(ctx context.Context, name string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.tagCalls = append(r.m.tagCalls, "ensure "+name)
	if name == r.m.failEnsure {
		return 0, errors.New("tag insert failed")
	}
	if id, ok := r.m.tagIDs[name]; ok {
		return id, nil
	}
	r.m.nextTagID++
	r.m.tagIDs[name] = r.m.nextTagID
	r.m.tagNames[r.m.nextTagID] = name
	return r.m.nextTagID, nil
}

func (r memTags) Link(ctx context.Context, postID, tagID int64, position int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.tagCalls = append(r.m.tagCalls, fmt.Sprintf("link %s@%d", r.m.tagNames[tagID], position))
	if r.m.links[postID] == nil {
		r.m.links[postID] = map[int64]int{}
	}
	if _, ok := r.m.links[postID][tagID]; !ok {
		r.m.links[postID][tagID] = position
	}
	return nil
}

func (r memTags) UnlinkAll(ctx context.Context, postID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.links, postID)
	return nil
}

func (r memTags) ListWithCounts(ctx context.Context) ([]models.TagCount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	counts := map[int64]int{}
	for _, tags := range r.m.links {
		for tagID := range tags {
			counts[tagID]++
		}
	}
	out := make([]models.TagCount, 0, len(r.m.tagIDs))
	for name, id := range r.m.tagIDs {
		out = append(out, models.TagCount{Name: name, Count: counts[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memTags) Prune(ctx context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	used := map[int64]bool{}
	for _, tags := range r.m.links {
		for tagID := range tags {
			used[tagID] = true
		}
	}
	var n int64
	for name, id := range r.m.tagIDs {
		if !used[id] {
			delete(r.m.tagIDs, name)
			delete(r.m.tagNames, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) linkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tags := range m.links {
		n += len(tags)
	}
	return n
}

type memUsers struct{ m *memStore }

func (r memUsers) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) Upsert(ctx context.Context, userName, passwordHash string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[userName]
	if !ok {
		u = &models.User{ID: int64(len(r.m.users) + 1), UserName: userName}
		r.m.users[userName] = u
	}
	u.PasswordHash = passwordHash
	c := *u
	return &c, nil
}

// fakeImages records accepted and removed image paths.
type fakeImages struct {
	mu        sync.Mutex
	n         int
	acceptErr error
	removed   []string
	stored    map[string]bool
}

func newFakeImages() *fakeImages { return &fakeImages{stored: map[string]bool{}} }

func (f *fakeImages) Accept(ctx context.Context, img *uploads.Image) (string, error) {
	if img == nil {
		return "", nil
	}
	if f.acceptErr != nil {
		return "", f.acceptErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	path := "/uploads/img-" + string(rune('a'+f.n-1)) + ".png"
	f.stored[path] = true
	return path, nil
}

func (f *fakeImages) Remove(ctx context.Context, publicPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, publicPath)
	delete(f.stored, publicPath)
	return nil
}

func pngImage() *uploads.Image {
	return &uploads.Image{Filename: "a.png", ContentType: "image/png", Size: 3, Body: bytes.NewReader([]byte{1, 2, 3})}
}
