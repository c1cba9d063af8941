// Package blob defines the abstract blob store capability every other
// layer of the pipeline depends on, plus a local-disk implementation.
// Higher layers never import a specific back-end directly.
package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store is the polymorphic contract every back-end satisfies: get/put/list/delete
// over content-addressed hive-style keys, plus a writability probe.
type Store interface {
	// MaybeGet returns the bytes at key, or (nil, false, nil) when the key does not exist.
	// Not-found is never an error.
	MaybeGet(ctx context.Context, key string) ([]byte, bool, error)

	// Put is an idempotent upsert. Content type is inferred from the key's
	// suffix (".json" -> application/json, else text/csv).
	Put(ctx context.Context, key string, contents []byte) error

	// List enumerates every key with the given prefix, fully paginated.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// CanPut reports whether this back-end accepts writes.
	CanPut() bool
}

// ContentType infers the MIME type of a blob key from its suffix, mirroring
// the write-path content-type negotiation every back-end must perform.
func ContentType(key string) string {
	if strings.HasSuffix(key, ".json") {
		return "application/json"
	}
	return "text/csv"
}

// LocalDisk is a Store rooted at a fixed directory on the local filesystem.
// It always accepts writes and is used both as the primary back-end when no
// remote credentials are configured, and as the fall-back tier of the
// Content Cache when the remote back-end is read-only or rejects a write.
type LocalDisk struct {
	Root string
}

// NewLocalDisk returns a LocalDisk rooted at root. The root is created lazily
// on first Put, mirroring the original implementation's behavior of never
// touching the filesystem until a write actually happens.
func NewLocalDisk(root string) *LocalDisk {
	return &LocalDisk{Root: root}
}

func (d *LocalDisk) path(key string) string {
	return filepath.Join(d.Root, filepath.FromSlash(key))
}

func (d *LocalDisk) MaybeGet(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (d *LocalDisk) Put(_ context.Context, key string, contents []byte) error {
	p := d.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, contents, 0o644)
}

func (d *LocalDisk) List(_ context.Context, prefix string) ([]string, error) {
	root := d.path(prefix)
	var keys []string
	err := filepath.WalkDir(filepath.Dir(root), func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (d *LocalDisk) Delete(_ context.Context, key string) error {
	err := os.Remove(d.path(key))
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (d *LocalDisk) CanPut() bool { return true }
