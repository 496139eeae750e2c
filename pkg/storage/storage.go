package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"e-hrm/backend/config"
)

var (
	ErrFileTooLarge    = errors.New("文件大小超出限制")
	ErrFileTypeInvalid = errors.New("不支持的文件类型")
	ErrForeignURL      = errors.New("URL 不属于本存储")
)

var allowedExt = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".doc":  true,
	".docx": true,
}

// Store 附件存储，返回可公开访问的 URL
type Store interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
	// Remove 删除 Save 返回的 URL 对应的文件，文件不存在时不报错
	Remove(ctx context.Context, url string) error
}

// LocalStore 本地磁盘存储，由静态文件路由对外提供
type LocalStore struct {
	root    string
	baseURL string
	maxSize int64
}

// NewLocalStore 创建本地存储并确保根目录存在
func NewLocalStore(cfg *config.StorageConfig) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalStore{
		root:    cfg.UploadDir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxSize: cfg.MaxSize,
	}, nil
}

// Root 本地根目录
func (s *LocalStore) Root() string { return s.root }

// Save 以随机文件名写入 folder 目录，保留原扩展名
func (s *LocalStore) Save(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", ErrFileTypeInvalid
	}

	folder = sanitizeFolder(folder)
	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}

	name := uuid.NewString() + ext
	full := filepath.Join(dir, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}

	limit := s.maxSize
	if limit <= 0 {
		limit = 10 << 20
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > limit {
		err = ErrFileTooLarge
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}

	return s.baseURL + "/" + path.Join(folder, name), nil
}

func (s *LocalStore) Remove(_ context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || rel == "" {
		return ErrForeignURL
	}
	clean := sanitizeFolder(rel)
	if clean != rel {
		return ErrForeignURL
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

// sanitizeFolder 去除路径穿越，只保留安全的相对目录
func sanitizeFolder(folder string) string {
	parts := strings.Split(filepath.ToSlash(folder), "/")
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		clean = append(clean, p)
	}
	if len(clean) == 0 {
		return "misc"
	}
	return path.Join(clean...)
}
