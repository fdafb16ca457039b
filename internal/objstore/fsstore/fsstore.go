// Package fsstore implements objstore.Store on the local filesystem.
// Buckets are top-level directories under the configured root. Meant
// for development and tests; production deployments use the s3 adapter.
package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atrium-pm/atrium/internal/config"
	"github.com/atrium-pm/atrium/internal/objstore"
	"github.com/atrium-pm/atrium/internal/util/atomicwrite"
)

type adapter struct{}

func (adapter) Name() string { return "fs" }

func (adapter) Open(_ context.Context, cfg *config.Config) (objstore.Store, error) {
	root := cfg.ObjectStore.FS.Root
	if root == "" {
		return nil, errors.New("fsstore: object_store.fs.root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return New(root), nil
}

func init() {
	objstore.RegisterAdapter(adapter{})
}

// Store keeps each object as a file plus a ".meta" sidecar holding the
// content type, since the filesystem has nowhere else to put it.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory must exist.
func New(dir string) *Store {
	return &Store{root: dir}
}

type sidecar struct {
	ContentType string `json:"content_type"`
}

const metaSuffix = ".meta"

func (s *Store) objectPath(bucket, key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", errors.New("fsstore: key escapes bucket root")
	}
	return filepath.Join(s.root, bucket, cleaned), nil
}

func (s *Store) Put(_ context.Context, bucket, key string, r io.Reader, _ int64, contentType string) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := atomicwrite.AtomicWriteReader(p, r, 0o644); err != nil {
		return err
	}
	meta, _ := json.Marshal(sidecar{ContentType: contentType})
	return atomicwrite.AtomicWriteFile(p+metaSuffix, meta, 0o644)
}

func (s *Store) Get(_ context.Context, bucket, key string) (io.ReadCloser, *objstore.ObjectInfo, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, objstore.ErrNotFound
		}
		return nil, nil, err
	}
	info, err := s.stat(p, key)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

func (s *Store) Delete(_ context.Context, bucket, key string) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return objstore.ErrNotFound
		}
		return err
	}
	_ = os.Remove(p + metaSuffix)
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, bucket string, keys []string) error {
	for _, k := range keys {
		if err := s.Delete(ctx, bucket, k); err != nil && !errors.Is(err, objstore.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *Store) Exists(_ context.Context, bucket, key string) (bool, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Head(_ context.Context, bucket, key string) (*objstore.ObjectInfo, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return nil, objstore.ErrNotFound
		}
		return nil, err
	}
	return s.stat(p, key)
}

func (s *Store) List(_ context.Context, bucket, prefix string, limit int) ([]objstore.ObjectInfo, error) {
	base := filepath.Join(s.root, bucket)
	var out []objstore.ObjectInfo
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) {
			return nil
		}
		rel, relErr := filepath.Rel(base, p)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, statErr := s.stat(p, key)
		if statErr != nil {
			return statErr
		}
		out = append(out, *info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	r, info, err := s.Get(ctx, bucket, srcKey)
	if err != nil {
		return err
	}
	defer r.Close()
	return s.Put(ctx, bucket, dstKey, r, info.Size, info.ContentType)
}

// SignedURL is meaningless for local files; callers fall back to
// streaming the object through the application.
func (s *Store) SignedURL(context.Context, string, string, string, time.Duration) (string, error) {
	return "", objstore.ErrUnsupported
}

func (s *Store) stat(path, key string) (*objstore.ObjectInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	info := &objstore.ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		LastModified: fi.ModTime().UTC(),
	}
	if raw, err := os.ReadFile(path + metaSuffix); err == nil {
		var sc sidecar
		if json.Unmarshal(raw, &sc) == nil {
			info.ContentType = sc.ContentType
		}
	}
	return info, nil
}

var _ objstore.Store = (*Store)(nil)
