// Package blob stores uploaded media and hands back stable public URLs.
// The chat pipeline only ever looks at the URL prefix to classify message
// bodies; everything behind it is this package's business.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store accepts raw bytes plus metadata and returns a stable URL.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) (url string, err error)
	// URLPrefix is the prefix every URL returned by Put starts with.
	URLPrefix() string
}

// DiskStore keeps objects as files under a directory and serves them from
// baseURL/uploads/.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) URLPrefix() string {
	return s.baseURL + "/uploads/"
}

// Put writes the object under a timestamped unique key. The original file
// name only survives as a sanitized suffix so URLs stay readable.
func (s *DiskStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], sanitize(name))

	f, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	return s.URLPrefix() + key, nil
}

// Dir is where objects live on disk, for wiring a static file server.
func (s *DiskStore) Dir() string {
	return s.dir
}

func sanitize(name string) string {
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
