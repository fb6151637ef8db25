package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TORY-SKY/swappNaija/internal/config"
)

// BlobStore 文件存储协作方：写入一个文件并返回可公开访问的 URL
// 只在发布商品上传图片时使用。
type BlobStore interface {
	Put(ctx context.Context, path string, r io.Reader) (string, error)
}

// DiskStore 本地磁盘实现，文件通过静态路由对外暴露
type DiskStore struct {
	dir        string
	publicBase string
}

// NewDiskStore 创建本地存储
func NewDiskStore(cfg *config.StorageConfig) *DiskStore {
	return &DiskStore{
		dir:        cfg.Dir,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}
}

// Put 落盘并返回 URL，path 形如 products/3/169... .jpg
func (s *DiskStore) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	clean := filepath.Clean(path)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: invalid path %q", path)
	}

	full := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return s.publicBase + "/" + filepath.ToSlash(clean), nil
}
