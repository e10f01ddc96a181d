// Package cache держит декодированные карты в памяти и рассылает
// инвалидации между узлами.
package cache

import (
	"fmt"
	"sync"

	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/metrics"
	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
)

// Hash ключ кеша: xxhash сжатых байтов снимка
func Hash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// MapCache кеш декодированных карт с адресацией по содержимому.
// Стоимость записи - число секций карты (не меньше 1).
// Закешированные карты общие для всех читателей и не должны изменяться.
type MapCache struct {
	c *ristretto.Cache[uint64, *gamemap.GameMap]

	mu    sync.RWMutex
	names map[string]uint64
}

// NewMapCache создаёт кеш на maxCost секций
func NewMapCache(maxCost, numCounters int64) (*MapCache, error) {
	if maxCost <= 0 {
		maxCost = 1 << 16
	}
	if numCounters <= 0 {
		numCounters = 10_000
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, *gamemap.GameMap]{
		NumCounters:        numCounters,
		MaxCost:            maxCost,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &MapCache{c: c, names: make(map[string]uint64)}, nil
}

// Cost стоимость карты в кеше
func Cost(m *gamemap.GameMap) int64 {
	return int64(max(1, m.ChunkCount()))
}

// Get карта по хэшу содержимого
func (mc *MapCache) Get(hash uint64) (*gamemap.GameMap, bool) {
	return mc.c.Get(hash)
}

// Put кладёт карту и связывает с ней имя. false - кеш отказался принять запись.
func (mc *MapCache) Put(name string, hash uint64, m *gamemap.GameMap) bool {
	ok := mc.c.Set(hash, m, Cost(m))
	mc.c.Wait()

	mc.mu.Lock()
	mc.names[name] = hash
	mc.mu.Unlock()
	return ok
}

// HashOf последний известный хэш содержимого для имени
func (mc *MapCache) HashOf(name string) (uint64, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	h, ok := mc.names[name]
	return h, ok
}

// Invalidate забывает имя и удаляет его карту, если на неё не ссылаются другие имена
func (mc *MapCache) Invalidate(name string) bool {
	mc.mu.Lock()
	h, ok := mc.names[name]
	if !ok {
		mc.mu.Unlock()
		return false
	}
	delete(mc.names, name)
	shared := false
	for _, other := range mc.names {
		if other == h {
			shared = true
			break
		}
	}
	mc.mu.Unlock()

	if !shared {
		mc.c.Del(h)
		mc.c.Wait()
	}
	return true
}

// Stats текущее состояние кеша; число записей - оценка по метрикам ristretto
func (mc *MapCache) Stats() metrics.CacheStats {
	m := mc.c.Metrics
	if m == nil {
		return metrics.CacheStats{}
	}
	return metrics.CacheStats{
		Items:    int64(m.KeysAdded()) - int64(m.KeysEvicted()),
		Cost:     int64(m.CostAdded()) - int64(m.CostEvicted()),
		HitRatio: m.Ratio(),
	}
}

// Clear очищает кеш и индекс имён
func (mc *MapCache) Clear() {
	mc.mu.Lock()
	mc.names = make(map[string]uint64)
	mc.mu.Unlock()
	mc.c.Clear()
}

// Close останавливает фоновые горутины ristretto
func (mc *MapCache) Close() {
	mc.c.Close()
}
