package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/philcifone/blog/internal/client/models"
	"github.com/philcifone/blog/internal/client/session"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

type Option func(*HTTPClient)

// WithTransport replaces the underlying round tripper. The auth interceptor
// still wraps it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.transport.base = rt }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithOnUnauthorized registers fn to run whenever the server answers 401,
// after the session has been cleared.
func WithOnUnauthorized(fn func()) Option {
	return func(c *HTTPClient) { c.transport.onUnauthorized = fn }
}

type HTTPClient struct {
	baseURL   string
	session   *session.Session
	transport *authTransport
	http      *http.Client
}

func New(baseURL string, sess *session.Session, opts ...Option) *HTTPClient {
	t := &authTransport{base: http.DefaultTransport, session: sess}
	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		session:   sess,
		transport: t,
		http:      &http.Client{Transport: t, Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Session() *session.Session {
	return c.session
}

// LoggedIn reports whether a token is held. It says nothing about whether
// the server still accepts it.
func (c *HTTPClient) LoggedIn() bool {
	return c.session.LoggedIn()
}

// Login exchanges credentials for a token and stores it in the session.
func (c *HTTPClient) Login(ctx context.Context, userName, password string) error {
	body, err := json.Marshal(map[string]string{"username": userName, "password": password})
	if err != nil {
		return err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", "application/json", bytes.NewReader(body), &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("server returned an empty token")
	}
	return c.session.Set(resp.Token)
}

func (c *HTTPClient) Logout() error {
	return c.session.Clear()
}

// Ping checks that the server and its database are reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *HTTPClient) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", "", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *HTTPClient) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodGet, postPath(id), "", nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

type mutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  int64  `json:"postId"`
}

// CreatePost uploads form and returns the new post id.
func (c *HTTPClient) CreatePost(ctx context.Context, form models.PostForm) (int64, error) {
	return c.submit(ctx, http.MethodPost, "/api/posts", form)
}

// UpdatePost replaces post id with form and returns its id.
func (c *HTTPClient) UpdatePost(ctx context.Context, id int64, form models.PostForm) (int64, error) {
	return c.submit(ctx, http.MethodPut, postPath(id), form)
}

func (c *HTTPClient) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, postPath(id), "", nil, nil)
}

func (c *HTTPClient) ListTags(ctx context.Context) ([]models.TagCount, error) {
	var tags []models.TagCount
	if err := c.do(ctx, http.MethodGet, "/api/tags", "", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// PruneTags removes tags without posts and reports how many went.
func (c *HTTPClient) PruneTags(ctx context.Context) (int64, error) {
	var resp struct {
		Removed int64 `json:"removed"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tags/prune", "", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func postPath(id int64) string {
	return "/api/posts/" + strconv.FormatInt(id, 10)
}

func (c *HTTPClient) submit(ctx context.Context, method, path string, form models.PostForm) (int64, error) {
	body, contentType, err := encodeForm(form)
	if err != nil {
		return 0, err
	}

	var res mutationResult
	if err := c.do(ctx, method, path, contentType, body, &res); err != nil {
		return 0, err
	}
	return res.PostID, nil
}

func encodeForm(form models.PostForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", form.Title},
		{"content", form.Content},
		{"excerpt", form.Excerpt},
		{"tags", form.Tags},
	}
	if !form.CreatedAt.IsZero() {
		fields = append(fields, [2]string{"created_at", form.CreatedAt.Format(time.RFC3339)})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if form.ImageFile != "" {
		if err := writeImage(mw, form.ImageFile); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeImage(mw *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

// do sends one request and decodes a 2xx JSON body into out when out is
// not nil. Other statuses become errors.
func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return decodeError(resp)
}

func decodeError(resp *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Code: body.Code, Message: body.Message}
}
