// Package storage хранит сжатые снимки карт под именами.
//
// Все бэкенды работают с готовыми байтами файла карты и ничего не знают о его
// содержимом: кодирование остаётся за пакетом codec.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Betrayd/game-maps/internal/config"
	"github.com/Betrayd/game-maps/internal/logging"
)

var logger = logging.GetStorageLogger()

// ErrMapNotFound карта с таким именем не сохранена
var ErrMapNotFound = errors.New("map not found")

// MapStore хранилище снимков карт
type MapStore interface {
	// Save сохраняет (или перезаписывает) снимок под именем name
	Save(ctx context.Context, name string, data []byte) error
	// Load возвращает байты снимка либо ErrMapNotFound
	Load(ctx context.Context, name string) ([]byte, error)
	// Delete удаляет снимок; ErrMapNotFound если его нет
	Delete(ctx context.Context, name string) error
	// List имена всех снимков по возрастанию
	List(ctx context.Context) ([]string, error)
	Close() error
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateName проверяет имя карты: латиница, цифры, '_', '.', '-', без ведущей точки
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("map name is empty")
	}
	if name[0] == '.' || !namePattern.MatchString(name) {
		return fmt.Errorf("invalid map name %q", name)
	}
	return nil
}

// NewStore создаёт хранилище по конфигурации
func NewStore(cfg config.StorageConfig) (MapStore, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Dir)
	case config.BackendBadger:
		return NewBadgerStore(cfg.Dir, cfg.InMemory)
	case config.BackendRedis:
		return NewRedisStore(&RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
