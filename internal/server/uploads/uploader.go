package uploads

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/filex"
	"github.com/philcifone/blog/internal/server/metrics"
)

// Uploader validates incoming images, names them and hands them to a Store.
type Uploader struct {
	store   Store
	maxSize int64
	now     func() time.Time
	newID   func() string
}

func NewUploader(store Store, maxSize int64) *Uploader {
	return &Uploader{
		store:   store,
		maxSize: maxSize,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// StoredName builds "<unix-millis>-<id><ext>" with the extension of the
// original file name lower-cased.
func StoredName(now time.Time, id, original string) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), id, strings.ToLower(filepath.Ext(original)))
}

// Accept stores img and returns its public path ("/uploads/<name>"). A nil
// image is not an error and yields an empty path.
func (u *Uploader) Accept(ctx context.Context, img *Image) (string, error) {
	if img == nil {
		return "", nil
	}

	if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
		metrics.UploadsRejected.WithLabelValues("type").Inc()
		return "", fmt.Errorf("%w: %w: only image uploads are allowed", common.ErrorValidation, common.ErrUnsupportedMedia)
	}
	if img.Size > u.maxSize {
		metrics.UploadsRejected.WithLabelValues("size").Inc()
		return "", fmt.Errorf("%w: image exceeds %d bytes", common.ErrPayloadTooLarge, u.maxSize)
	}

	name := StoredName(u.now(), u.newID(), img.Filename)

	// read one byte past the limit to detect a body larger than its header claims
	body := io.LimitReader(img.Body, u.maxSize+1)
	n, err := u.store.Put(ctx, name, body, img.ContentType)
	if err != nil {
		return "", err
	}
	if n > u.maxSize {
		_ = u.store.Delete(ctx, name)
		metrics.UploadsRejected.WithLabelValues("size").Inc()
		return "", fmt.Errorf("%w: image exceeds %d bytes", common.ErrPayloadTooLarge, u.maxSize)
	}

	metrics.UploadedBytes.Add(float64(n))
	return common.UploadsPathPrefix + name, nil
}

// Remove deletes the image behind a public path returned by Accept.
func (u *Uploader) Remove(ctx context.Context, publicPath string) error {
	name, ok := strings.CutPrefix(publicPath, common.UploadsPathPrefix)
	if !ok || !filex.IsPlainName(name) {
		return fmt.Errorf("not an upload path: %q", publicPath)
	}
	return u.store.Delete(ctx, name)
}

// Open returns the stored image called name for serving.
func (u *Uploader) Open(ctx context.Context, name string) (*Object, error) {
	if !filex.IsPlainName(name) {
		return nil, common.ErrorNotFound
	}
	return u.store.Get(ctx, name)
}
