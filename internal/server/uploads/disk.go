package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/filex"
)

// DiskStore keeps images as files in one directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DiskStore{dir: abs}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(key string) (string, error) {
	if !filex.IsPlainName(key) {
		return "", common.ErrorNotFound
	}
	return filepath.Join(s.dir, key), nil
}

func (s *DiskStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (int64, error) {
	path, err := s.path(key)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q", key)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", key, err)
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = filex.RemoveIfExists(path)
		return 0, fmt.Errorf("write %s: %w", key, err)
	}

	return n, nil
}

func (s *DiskStore) Get(ctx context.Context, key string) (*Object, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, common.ErrorNotFound
	}

	return &Object{
		Body:        f,
		ContentType: mime.TypeByExtension(filepath.Ext(key)),
		Size:        fi.Size(),
		ModTime:     fi.ModTime(),
	}, nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return nil
	}
	return filex.RemoveIfExists(path)
}
