// Команда gamemaps: генерация, просмотр, размещение и хранение снимков карт.
//
//	gamemaps [-config file] demo -out arena.gmap -seed 7 -from 0,40,0 -to 47,95,47
//	gamemaps info -in arena.gmap
//	gamemaps place -in arena.gmap -offset 100,0,100
//	gamemaps materialize -in arena.gmap
//	gamemaps store -in arena.gmap -name arena
//	gamemaps list
//	gamemaps serve-metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Betrayd/game-maps/internal/cache"
	"github.com/Betrayd/game-maps/internal/capture"
	"github.com/Betrayd/game-maps/internal/codec"
	"github.com/Betrayd/game-maps/internal/config"
	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Betrayd/game-maps/internal/gamemap/marker"
	"github.com/Betrayd/game-maps/internal/library"
	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/materialize"
	"github.com/Betrayd/game-maps/internal/metrics"
	"github.com/Betrayd/game-maps/internal/placement"
	"github.com/Betrayd/game-maps/internal/storage"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world"
	"golang.org/x/sync/errgroup"
)

type command struct {
	name  string
	usage string
	run   func(cfg *config.Config, args []string) error
}

var commands = []command{
	{"demo", "сгенерировать мир, снять карту и записать файл", runDemo},
	{"info", "показать содержимое файла карты", runInfo},
	{"place", "разместить карту в пустом мире в памяти", runPlace},
	{"materialize", "прогнать карту через ленивый адаптер", runMaterialize},
	{"store", "сохранить файл карты в хранилище", runStore},
	{"list", "перечислить карты в хранилище", runList},
	{"serve-metrics", "отдавать метрики Prometheus до сигнала завершения", runServeMetrics},
}

func main() {
	configPath := flag.String("config", "", "YAML config (default: $GAMEMAPS_CONFIG)")
	logLevel := flag.String("log-level", "", "override logging level")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := logging.InitLogger(logging.Options{
		Level:      cfg.Logging.Level,
		Dir:        cfg.Logging.Dir,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(cfg, args); err != nil {
			logging.LogError("%s: %v", name, err)
			logging.CloseLogger()
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gamemaps [-config file] [-log-level level] <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", c.name, c.usage)
	}
}

func runDemo(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	out := fs.String("out", "demo.gmap", "output file")
	seed := fs.Int64("seed", 1, "terrain seed")
	aligned := fs.Bool("aligned", false, "capture whole sections")
	compName := fs.String("compression", cfg.Storage.Compression, "gzip | zstd")
	from := &vec3Flag{v: vec.Vec3{X: 0, Y: 32, Z: 0}}
	to := &vec3Flag{v: vec.Vec3{X: 31, Y: 95, Z: 31}}
	fs.Var(from, "from", "first corner x,y,z")
	fs.Var(to, "to", "second corner x,y,z")
	fs.Parse(args)

	comp, err := codec.ParseCompression(*compName)
	if err != nil {
		return err
	}

	w := world.NewMemory(gamemap.DefaultDimension)
	w.SetDayTime(6000)
	w.SetGameRule("doMobSpawning", "false")
	if err := world.NewGenerator(*seed).Generate(w, from.v, to.v); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	opts := capture.Options{Custom: map[string]any{"seed": *seed}}
	var m *gamemap.GameMap
	if *aligned {
		origin := from.v.Section()
		m, err = capture.Aligned(w, origin, to.v.Section(), origin, opts)
	} else {
		m, err = capture.Point(w, from.v, to.v, opts)
	}
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	size := vec.NewBox(from.v, to.v).Size()
	m.AddMarker(&marker.Spawn{Pose: marker.Pose{Pos: vec.Vec3Float{X: float64(size.X) / 2, Y: float64(size.Y), Z: float64(size.Z) / 2}}, Team: "default"})

	if err := codec.NewSerializer(nil).SaveFile(*out, m, comp); err != nil {
		return err
	}
	fmt.Printf("✅ %s: %d секций, %d сущностей (%s)\n", *out, m.ChunkCount(), len(m.Entities), comp)
	return nil
}

func loadMap(path string) (*gamemap.GameMap, error) {
	if path == "" {
		return nil, errors.New("-in is required")
	}
	return codec.NewDeserializer(nil).LoadFile(path)
}

func runInfo(_ *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	in := fs.String("in", "", "map file")
	fs.Parse(args)

	m, err := loadMap(*in)
	if err != nil {
		return err
	}
	fmt.Printf("dimension: %s\n", m.Meta.Dimension)
	if m.Meta.DayTime != 0 {
		fmt.Printf("day time:  %d\n", m.Meta.DayTime)
	}
	for _, r := range m.Meta.RuleNames() {
		fmt.Printf("rule:      %s = %s\n", r, m.Meta.GameRules[r])
	}
	if m.Meta.HasCustom() {
		fmt.Printf("custom:    %v\n", m.Meta.Custom)
	}
	fmt.Printf("chunks:    %d\n", m.ChunkCount())
	fmt.Printf("entities:  %d\n", len(m.Entities))
	fmt.Printf("markers:   %d\n", len(m.Markers))
	if lo, hi, ok := m.ChunkBounds(); ok {
		fmt.Printf("bounds:    %v .. %v\n", lo, hi)
	}
	return nil
}

func runPlace(_ *config.Config, args []string) error {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	in := fs.String("in", "", "map file")
	skipAir := fs.Bool("skip-air", false, "do not overwrite with air")
	offset := &vec3Flag{}
	fs.Var(offset, "offset", "placement offset x,y,z")
	fs.Parse(args)

	m, err := loadMap(*in)
	if err != nil {
		return err
	}
	w := world.NewMemory(m.Meta.Dimension)
	start := time.Now()
	st, err := placement.PlaceWith(w, m, offset.v, placement.Options{SkipAir: *skipAir})
	if err != nil {
		return err
	}
	fmt.Printf("✅ размещено за %v: %d блоков, %d блок-сущностей, %d сущностей, %d секций мира\n",
		time.Since(start).Round(time.Millisecond), st.Blocks, st.BlockEntities, st.Entities, w.SectionCount())
	return nil
}

func runMaterialize(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("materialize", flag.ExitOnError)
	in := fs.String("in", "", "map file")
	fs.Parse(args)

	m, err := loadMap(*in)
	if err != nil {
		return err
	}
	a := materialize.NewAdapter(m, materialize.Config{
		Workers: cfg.Materialize.Workers,
		MinY:    cfg.Materialize.MinY,
		MaxY:    cfg.Materialize.MaxY,
	})
	lo, hi, ok := a.Bounds()
	if !ok {
		fmt.Println("карта пуста")
		return nil
	}

	// колонки заполняются параллельно, секции внутри колонки - через пул адаптера
	var g errgroup.Group
	protos := make(chan *materialize.ProtoChunk, (hi.X-lo.X+1)*(hi.Z-lo.Z+1))
	for cx := lo.X; cx <= hi.X; cx++ {
		for cz := lo.Z; cz <= hi.Z; cz++ {
			proto := a.NewProtoChunk(cx, cz)
			g.Go(func() error {
				if err := a.PopulateNoise(proto); err != nil {
					return err
				}
				a.PopulateEntities(proto)
				protos <- proto
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(protos)

	var blockEntities, entities int
	for p := range protos {
		blockEntities += len(p.PendingBlockEntities())
		entities += len(p.Entities())
	}
	fmt.Printf("✅ колонок %d, блок-сущностей %d, сущностей %d, высота поверхности в %d,%d: %d\n",
		cap(protos), blockEntities, entities, lo.X<<4, lo.Z<<4,
		a.Height(lo.X<<4, lo.Z<<4, materialize.WorldSurface))
	return nil
}

// openLibrary собирает библиотеку по конфигурации
func openLibrary(cfg *config.Config) (*library.Library, func(), error) {
	comp, err := codec.ParseCompression(cfg.Storage.Compression)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	mc, err := cache.NewMapCache(cfg.Cache.MaxCost, cfg.Cache.NumCounters)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	var inv cache.Invalidator = &cache.NoopInvalidator{}
	if cfg.Cache.NATSURL != "" {
		n, err := cache.NewNATSInvalidator(&cache.InvalidatorConfig{NATSURL: cfg.Cache.NATSURL, Subject: cfg.Cache.Subject}, "")
		if err != nil {
			logging.LogWarn("NATS недоступен, инвалидация только локальная: %v", err)
		} else {
			inv = n
		}
	}
	lib := library.New(store, mc, library.Options{Compression: comp, Invalidator: inv})
	closeFn := func() {
		inv.Close()
		mc.Close()
		if err := store.Close(); err != nil {
			logging.LogError("Ошибка закрытия хранилища: %v", err)
		}
	}
	return lib, closeFn, nil
}

func runStore(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	in := fs.String("in", "", "map file")
	name := fs.String("name", "", "map name in the store")
	fs.Parse(args)

	if err := storage.ValidateName(*name); err != nil {
		return err
	}
	m, err := loadMap(*in)
	if err != nil {
		return err
	}
	lib, closeFn, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := lib.Save(ctx, *name, m); err != nil {
		return err
	}
	fmt.Printf("✅ %s сохранена в %s\n", *name, cfg.Storage.Backend)
	return nil
}

func runList(cfg *config.Config, _ []string) error {
	lib, closeFn, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	names, err := lib.List(context.Background())
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runServeMetrics(cfg *config.Config, _ []string) error {
	lib, closeFn, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := lib.Subscribe(ctx); err != nil {
		return err
	}

	exp := metrics.NewExporter(lib)
	exp.StartHTTP(cfg.Metrics.Addr())

	<-ctx.Done()
	logging.LogInfo("📡 Получен сигнал завершения, остановка...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exp.Stop(shutdownCtx)
}
