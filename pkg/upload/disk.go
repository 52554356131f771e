package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

// DiskStore stores uploads on the local filesystem and returns URLs under
// a base URL that serves the directory.
type DiskStore struct {
	dir     string
	baseURL string
	maxSize int64
}

// NewDiskStore creates a new DiskStore.
//
// Parameters:
//   - dir: directory to store files in
//   - baseURL: URL prefix the directory is served under
//   - maxSize: maximum file size in bytes (0 = no limit)
func NewDiskStore(dir, baseURL string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Dir returns the storage directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Upload writes f under a random name.
func (s *DiskStore) Upload(ctx context.Context, f *File) (string, error) {
	name := objectName(f.Filename)
	op := "write " + name
	if err := ctx.Err(); err != nil {
		return "", dasherrors.FromTransport(op, err)
	}
	if err := rewind(op, f); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", dasherrors.New(dasherrors.KindNetwork, op).Wrap(err)
	}
	defer out.Close()

	var reader io.Reader = f.Reader
	if s.maxSize > 0 {
		reader = io.LimitReader(f.Reader, s.maxSize+1) // +1 to detect overflow
	}
	written, err := io.Copy(out, reader)
	if err != nil {
		os.Remove(path)
		return "", dasherrors.New(dasherrors.KindNetwork, op).Wrap(err)
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return "", dasherrors.New(dasherrors.KindTooLarge, op).Wrap(ErrTooLarge)
	}
	return s.baseURL + "/" + name, nil
}

// Cleanup removes files older than maxAge.
func (s *DiskStore) Cleanup(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}
