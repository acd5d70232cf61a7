package credential

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/lixiang/orderdesk/pkg/errors"
)

// FileStore 文件凭证存储（默认实现）
// 凭证以0600权限写到单个文件，路径默认为~/.orderdesk/token
type FileStore struct {
	path string
}

// NewFileStore 创建文件凭证存储
// path为空时使用默认路径
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, apperrors.Wrap(err, "无法确定凭证存储路径")
		}
		path = filepath.Join(home, ".orderdesk", "token")
	}

	return &FileStore{path: path}, nil
}

// Save 保存凭证
func (s *FileStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return apperrors.Wrap(err, "创建凭证目录失败")
	}

	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return apperrors.Wrap(err, "保存凭证失败")
	}

	return nil
}

// Load 读取凭证（不存在时返回空串）
func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", apperrors.Wrap(err, "读取凭证失败")
	}

	return strings.TrimSpace(string(data)), nil
}

// Clear 清除凭证
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, "清除凭证失败")
	}
	return nil
}
