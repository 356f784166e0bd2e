package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"activity-kiosk/internal/domain"
)

// FileStore хранит каждую запись в отдельном JSON-файле.
// Временем записи считается mtime файла.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore создаёт файловое хранилище в каталоге dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path возвращает путь к файлу записи.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Read читает файл записи.
func (s *FileStore) Read(_ context.Context, key string) ([]byte, time.Time, error) {
	path := s.Path(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, domain.ErrCacheMiss
		}
		return nil, time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read %s: %w", path, err)
	}
	return data, info.ModTime(), nil
}

// Write атомарно заменяет файл через временный файл и rename.
func (s *FileStore) Write(_ context.Context, key string, data []byte, _ time.Duration) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.dir, err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
