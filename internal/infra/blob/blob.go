package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
)

var ErrUnavailable = errors.New("asset storage unavailable")

// AssetStore answers whether an uploaded asset is still present.
type AssetStore interface {
	Exists(ctx context.Context, key string) (bool, error)
}

func New(ctx context.Context, cfg *config.Config) (AssetStore, error) {
	switch cfg.Blob.Driver {
	case "s3":
		return NewS3(ctx, cfg)
	case "local":
		return NewLocal(cfg.Blob.LocalDir), nil
	}
	return nil, fmt.Errorf("unsupported blob driver %q", cfg.Blob.Driver)
}

// LocalStore serves assets from a directory on disk.
type LocalStore struct {
	dir string
}

func NewLocal(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return false, fmt.Errorf("invalid asset key %q", key)
	}
	info, err := os.Stat(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
