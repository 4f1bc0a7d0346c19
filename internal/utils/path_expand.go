package utils

import (
	"os"
	"path/filepath"
	"strings"

	coreerrors "flyingsocks-core/internal/core/errors"
)

// ExpandPath 展开路径，支持 ~ 和相对路径
// 例如：~/.flyingsocks/pac.txt -> /home/user/.flyingsocks/pac.txt
//
//	./rules/pac.txt -> /current/dir/rules/pac.txt
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", coreerrors.New(coreerrors.CodeInvalidParam, "path is empty")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CodeConfigError, "failed to get home directory")
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", coreerrors.Wrapf(err, coreerrors.CodeConfigError, "failed to convert %s to absolute path", path)
		}
		path = absPath
	}

	return path, nil
}

// WriteFileAtomic 先写临时文件再原子替换
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to create directory for %s", path)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, perm); err != nil {
		return coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to write temp file %s", tempFile)
	}
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to rename temp file to %s", path)
	}
	return nil
}
