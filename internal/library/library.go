// Package library сохраняет и загружает именованные снимки карт, объединяя
// кодек, хранилище, кеш декодированных карт и межузловую инвалидацию.
package library

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Betrayd/game-maps/internal/cache"
	"github.com/Betrayd/game-maps/internal/codec"
	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/metrics"
	"github.com/Betrayd/game-maps/internal/storage"
)

var logger = logging.GetComponentLogger("library")

// Library библиотека снимков карт.
// Load возвращает общий экземпляр из кеша: вызывающий не должен его менять.
type Library struct {
	store       storage.MapStore
	cache       *cache.MapCache
	invalidator cache.Invalidator

	ser  *codec.Serializer
	des  *codec.Deserializer
	comp codec.Compression

	hits   atomic.Int64
	misses atomic.Int64
}

// Options зависимости библиотеки; nil-поля заменяются значениями по умолчанию
type Options struct {
	Serializer   *codec.Serializer
	Deserializer *codec.Deserializer
	Compression  codec.Compression
	Invalidator  cache.Invalidator
}

// New создаёт библиотеку поверх store и mc
func New(store storage.MapStore, mc *cache.MapCache, opts Options) *Library {
	l := &Library{
		store:       store,
		cache:       mc,
		invalidator: opts.Invalidator,
		ser:         opts.Serializer,
		des:         opts.Deserializer,
		comp:        opts.Compression,
	}
	if l.ser == nil {
		l.ser = codec.NewSerializer(nil)
	}
	if l.des == nil {
		l.des = codec.NewDeserializer(nil)
	}
	if l.invalidator == nil {
		l.invalidator = &cache.NoopInvalidator{}
	}
	return l
}

// Subscribe применяет инвалидации других узлов к локальному кешу
func (l *Library) Subscribe(ctx context.Context) error {
	return l.invalidator.SubscribeInvalidations(ctx, func(name string) error {
		if l.cache.Invalidate(name) {
			logger.Debug("Карта %s вытеснена по уведомлению другого узла", name)
		}
		return nil
	})
}

// Save кодирует карту и сохраняет её под именем name
func (l *Library) Save(ctx context.Context, name string, m *gamemap.GameMap) error {
	data, err := l.ser.Marshal(m, l.comp)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := l.store.Save(ctx, name, data); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	l.cache.Invalidate(name)

	if err := l.invalidator.PublishInvalidation(ctx, name); err != nil {
		// снимок уже сохранён; другие узлы перечитают его по хэшу при следующей загрузке
		logger.Warn("Не удалось разослать инвалидацию %s: %v", name, err)
	}
	logger.Info("Карта %s сохранена: %d секций, %d байт", name, m.ChunkCount(), len(data))
	return nil
}

// Load возвращает карту по имени; storage.ErrMapNotFound если её нет
func (l *Library) Load(ctx context.Context, name string) (*gamemap.GameMap, error) {
	data, err := l.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	h := cache.Hash(data)
	if m, ok := l.cache.Get(h); ok {
		l.hits.Add(1)
		metrics.CacheHits.Inc()
		l.cache.Put(name, h, m)
		return m, nil
	}
	l.misses.Add(1)
	metrics.CacheMisses.Inc()

	m, err := l.des.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	l.cache.Put(name, h, m)
	return m, nil
}

// Delete удаляет снимок и вытесняет его из кеша
func (l *Library) Delete(ctx context.Context, name string) error {
	if err := l.store.Delete(ctx, name); err != nil {
		return err
	}
	l.cache.Invalidate(name)
	if err := l.invalidator.PublishInvalidation(ctx, name); err != nil {
		logger.Warn("Не удалось разослать инвалидацию %s: %v", name, err)
	}
	return nil
}

// List имена сохранённых карт
func (l *Library) List(ctx context.Context) ([]string, error) {
	return l.store.List(ctx)
}

// Exists есть ли снимок с таким именем
func (l *Library) Exists(ctx context.Context, name string) (bool, error) {
	_, err := l.store.Load(ctx, name)
	if errors.Is(err, storage.ErrMapNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CacheStats состояние кеша для экспортёра метрик
func (l *Library) CacheStats() metrics.CacheStats {
	st := l.cache.Stats()
	hits, misses := l.hits.Load(), l.misses.Load()
	if total := hits + misses; total > 0 {
		st.HitRatio = float64(hits) / float64(total)
	}
	return st
}

// Counters попадания и промахи кеша с момента создания
func (l *Library) Counters() (hits, misses int64) {
	return l.hits.Load(), l.misses.Load()
}
