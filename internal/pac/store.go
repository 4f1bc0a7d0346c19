package pac

import (
	"bufio"
	"errors"
	"io/fs"
	"os"

	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/utils"
)

// ModeStore 持久化启动时使用的代理模式
type ModeStore interface {
	Load() (Mode, error)
	Save(mode Mode) error
}

// FileModeStore 单个文本标识的模式文件
type FileModeStore struct {
	path   string
	logger corelog.Logger
}

// NewFileModeStore 创建模式文件存储
func NewFileModeStore(path string, logger corelog.Logger) *FileModeStore {
	if logger == nil {
		logger = corelog.Default()
	}
	return &FileModeStore{path: path, logger: logger}
}

// Path 返回模式文件路径
func (s *FileModeStore) Path() string {
	return s.path
}

// Load 读取模式文件中的第一个标识
//
// 文件不存在时返回 DefaultMode；标识无法识别时告警并返回 DefaultMode；
// 路径是目录时返回配置错误
func (s *FileModeStore) Load() (Mode, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultMode, nil
		}
		return DefaultMode, coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to stat %s", s.path)
	}
	if info.IsDir() {
		return DefaultMode, coreerrors.Newf(coreerrors.CodeConfigError, "file at %s is a directory", s.path)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return DefaultMode, coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to open %s", s.path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return DefaultMode, coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to read %s", s.path)
		}
		return ParseModeTag("", s.logger.WithField(corelog.FieldFile, s.path)), nil
	}
	return ParseModeTag(sc.Text(), s.logger.WithField(corelog.FieldFile, s.path)), nil
}

// Save 写入模式标识
func (s *FileModeStore) Save(mode Mode) error {
	if !mode.IsValid() {
		return coreerrors.Newf(coreerrors.CodeInvalidParam, "proxy mode %d is not correct", int32(mode))
	}
	return utils.WriteFileAtomic(s.path, []byte(mode.Tag()), 0644)
}

// MemoryModeStore 内存中的模式存储，用于测试和无持久化场景
type MemoryModeStore struct {
	mode  Mode
	saves int
}

// NewMemoryModeStore 创建内存模式存储
func NewMemoryModeStore(mode Mode) *MemoryModeStore {
	return &MemoryModeStore{mode: mode}
}

// Load 返回当前保存的模式
func (s *MemoryModeStore) Load() (Mode, error) {
	return s.mode, nil
}

// Save 保存模式
func (s *MemoryModeStore) Save(mode Mode) error {
	if !mode.IsValid() {
		return coreerrors.Newf(coreerrors.CodeInvalidParam, "proxy mode %d is not correct", int32(mode))
	}
	s.mode = mode
	s.saves++
	return nil
}

// Saves 返回 Save 调用次数
func (s *MemoryModeStore) Saves() int {
	return s.saves
}
