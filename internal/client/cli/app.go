package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/philcifone/blog/internal/client/cache"
	"github.com/philcifone/blog/internal/client/client"
	"github.com/philcifone/blog/internal/client/config"
	"github.com/philcifone/blog/internal/client/models"
	"github.com/philcifone/blog/internal/client/session"
)

var errNotLoggedIn = errors.New("not logged in, run 'blogctl login' first")

// API is the subset of the HTTP client the commands use.
type API interface {
	Login(ctx context.Context, userName, password string) error
	Logout() error
	LoggedIn() bool
	Ping(ctx context.Context) error
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	CreatePost(ctx context.Context, form models.PostForm) (int64, error)
	UpdatePost(ctx context.Context, id int64, form models.PostForm) (int64, error)
	DeletePost(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]models.TagCount, error)
	PruneTags(ctx context.Context) (int64, error)
}

// PostCache is the offline copy of the post list.
type PostCache interface {
	Replace(ctx context.Context, list []models.Post) error
	Put(ctx context.Context, p *models.Post) error
	Forget(ctx context.Context, id int64) error
	Posts(ctx context.Context) ([]models.Post, error)
	Post(ctx context.Context, id int64) (*models.Post, error)
	SyncedAt(ctx context.Context) (time.Time, bool, error)
	Clear(ctx context.Context) error
	Close() error
}

type App struct {
	api    API
	cache  PostCache
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

// AppFactory builds the App once configuration is resolved. Tests swap it
// for one returning fakes.
type AppFactory func(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*App, error)

// NewApp wires the real HTTP client, token file and SQLite cache.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	sess, err := session.New(session.NewFileStore(cfg.TokenFile))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	api := client.New(cfg.ServerURL, sess,
		client.WithTimeout(cfg.Timeout),
		client.WithOnUnauthorized(func() {
			fmt.Fprintln(errOut, "session expired, please log in")
		}),
	)

	c, err := cache.Open(ctx, cfg.CacheFile)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return newApp(api, c, in, out, errOut), nil
}

func newApp(api API, c PostCache, in io.Reader, out, errOut io.Writer) *App {
	if in == nil {
		in = os.Stdin
	}
	return &App{api: api, cache: c, reader: bufio.NewReader(in), out: out, errOut: errOut}
}

func (a *App) Close() error {
	return a.cache.Close()
}

func (a *App) requireLogin() error {
	if !a.api.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

// warnf reports a non-fatal problem on the error stream.
func (a *App) warnf(format string, args ...any) {
	fmt.Fprintf(a.errOut, "warning: "+format+"\n", args...)
}

// offlineNotice tells the user the output came from the cache and how old it is.
func (a *App) offlineNotice(ctx context.Context) {
	synced, ok, err := a.cache.SyncedAt(ctx)
	switch {
	case err != nil:
		a.warnf("read cache metadata: %v", err)
	case !ok:
		fmt.Fprintln(a.errOut, "showing cached posts (never synced)")
	default:
		fmt.Fprintf(a.errOut, "showing cached posts (last synced %s)\n", synced.Local().Format(time.DateTime))
	}
}
