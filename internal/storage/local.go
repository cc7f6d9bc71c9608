package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalBackend stores artifacts on the local filesystem under root.
// Presign returns an unsigned local URL routed through the serving
// layer, since there is no object store to issue a signed URL from.
type LocalBackend struct {
	root string
}

func NewLocalBackend(root string) *LocalBackend {
	return &LocalBackend{root: root}
}

func (b *LocalBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := filepath.Join(b.root, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return key, nil
}

func (b *LocalBackend) Get(ctx context.Context, key string) ([]byte, error) {
	path := filepath.Join(b.root, key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (b *LocalBackend) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "/artifacts/" + strings.TrimPrefix(key, "/"), nil
}

func (b *LocalBackend) List(ctx context.Context, prefix string) ([]string, error) {
	dir := filepath.Join(b.root, prefix)
	var keys []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(b.root, path)
		if relErr != nil {
			return relErr
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}
