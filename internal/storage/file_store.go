package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileExt расширение файлов снимков
const FileExt = ".gmap"

// FileStore хранит каждый снимок отдельным файлом <name>.gmap в каталоге
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// FileStats статистика файлового хранилища
type FileStats struct {
	BasePath    string
	StoredFiles int
	TotalBytes  int64
}

// NewFileStore создаёт хранилище, создавая каталог при необходимости
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) filename(name string) string {
	return filepath.Join(s.basePath, name+FileExt)
}

// Save атомарно пишет снимок через временный файл
func (s *FileStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.basePath, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка записи файла %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.filename(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка записи файла %s: %w", s.filename(name), err)
	}
	return nil
}

// Load читает снимок
func (s *FileStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filename(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", name, ErrMapNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", s.filename(name), err)
	}
	return data, nil
}

// Delete удаляет файл снимка
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.filename(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", name, ErrMapNotFound)
	}
	return err
}

// List имена снимков в каталоге; временные файлы не попадают
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != FileExt {
			continue
		}
		name := strings.TrimSuffix(e.Name(), FileExt)
		if ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Stats возвращает статистику хранилища
func (s *FileStore) Stats() FileStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := FileStats{BasePath: s.basePath}
	filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != FileExt {
			return nil
		}
		if info, err := d.Info(); err == nil {
			st.StoredFiles++
			st.TotalBytes += info.Size()
		}
		return nil
	})
	return st
}

// Close ничего не держит открытым
func (s *FileStore) Close() error { return nil }
