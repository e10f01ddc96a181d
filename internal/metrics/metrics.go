// Package metrics содержит Prometheus-метрики подсистемы карт и HTTP-эндпоинт /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gamemaps"

var (
	// CapturesTotal число захватов по стратегиям (point, aligned)
	CapturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_total",
		Help:      "Общее число захватов карт.",
	}, []string{"strategy"})

	// PlacedBlocks число блоков, записанных прямым размещением
	PlacedBlocks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "placed_blocks_total",
		Help:      "Блоков записано в мир прямым размещением.",
	})

	// SectionsMaterialized число секций, выданных ленивым адаптером
	SectionsMaterialized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sections_materialized_total",
		Help:      "Секций заполнено ленивым адаптером.",
	})

	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "library_cache_hits_total",
		Help:      "Загрузок карт, обслуженных из кэша.",
	})

	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "library_cache_misses_total",
		Help:      "Загрузок карт, потребовавших декодирования.",
	})

	// MigrationDrops записи, отброшенные цепочкой миграций (entity, block_entity)
	MigrationDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migration_drops_total",
		Help:      "Записей, отброшенных трансформациями при загрузке.",
	}, []string{"kind"})
)

var registerOnce sync.Once

// Register регистрирует метрики в глобальном регистре Prometheus (один раз)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(CapturesTotal, PlacedBlocks, SectionsMaterialized,
			CacheHits, CacheMisses, MigrationDrops)
	})
}

// CacheStats состояние кэша декодированных карт
type CacheStats struct {
	Items    int64
	Cost     int64
	HitRatio float64
}

// StatsProvider источник состояния кэша (реализуется library.Library)
type StatsProvider interface {
	CacheStats() CacheStats
}

// Exporter управляет HTTP-эндпоинтом Prometheus и периодически обновляет Gauge кэша.
type Exporter struct {
	provider StatsProvider
	interval time.Duration
	server   *http.Server
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	cacheItems prometheus.Gauge
	cacheCost  prometheus.Gauge
	hitRatio   prometheus.Gauge
}

// NewExporter создаёт экспортер, но не запускает HTTP-сервер.
// provider может быть nil - тогда Gauge кэша не обновляются.
func NewExporter(provider StatsProvider) *Exporter {
	e := &Exporter{
		provider: provider,
		interval: time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		cacheItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "library_cache_items",
			Help:      "Карт в кэше декодированных карт.",
		}),
		cacheCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "library_cache_cost",
			Help:      "Суммарная стоимость (секции) карт в кэше.",
		}),
		hitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "library_cache_hit_ratio",
			Help:      "Доля попаданий кэша.",
		}),
	}
	return e
}

// Collectors Gauge экспортера (для регистрации в своём регистре)
func (e *Exporter) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.cacheItems, e.cacheCost, e.hitRatio}
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (e *Exporter) StartHTTP(addr string) {
	Register()
	prometheus.MustRegister(e.Collectors()...)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.LogInfo("Prometheus /metrics доступен по адресу %s", addr)
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go e.loop()
}

// Stop останавливает обновление метрик и HTTP-сервер
func (e *Exporter) Stop(ctx context.Context) error {
	var err error
	e.stopOnce.Do(func() {
		close(e.quit)
		if e.server != nil {
			<-e.done
			err = e.server.Shutdown(ctx)
		}
	})
	return err
}

// Refresh однократно обновляет Gauge из провайдера
func (e *Exporter) Refresh() {
	if e.provider == nil {
		return
	}
	stats := e.provider.CacheStats()
	e.cacheItems.Set(float64(stats.Items))
	e.cacheCost.Set(float64(stats.Cost))
	e.hitRatio.Set(stats.HitRatio)
}

func (e *Exporter) loop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Refresh()
		case <-e.quit:
			return
		}
	}
}
