package world

import (
	"math/rand"

	"github.com/Betrayd/game-maps/internal/record"
	"github.com/Betrayd/game-maps/internal/util"
	"github.com/Betrayd/game-maps/internal/vec"
	"github.com/Betrayd/game-maps/internal/world/block"
)

// Константы высот для генерации (доля от амплитуды рельефа)
const (
	DeepWaterMax    = 0.20 // Ниже - глубинная вода
	ShallowWaterMax = 0.30 // Ниже - мелководье
	ActiveStart     = 0.60 // Выше - возвышенности с объектами
	MountainStart   = 0.80 // Выше - горы
)

// Generator заполняет мир в памяти демонстрационным ландшафтом.
// Используется командой demo и тестами, которым нужен «живой» мир.
type Generator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	BaseY         int     // Нижняя граница рельефа
	Amplitude     int     // Перепад высот
	ChestChance   float64 // Шанс сундука на поверхности
	AnimalChance  float64 // Шанс животного на поверхности
	height, biome *util.Noise
}

// NewGenerator создаёт новый генератор мира
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:         seed,
		NoiseScale:   0.05, // Настройка сглаженности ландшафта
		BiomeScale:   0.02, // Настройка размера биомов
		BaseY:        48,
		Amplitude:    32,
		ChestChance:  0.002,
		AnimalChance: 0.01,
		height:       util.NewNoise(seed),
		biome:        util.NewNoise(seed + 42),
	}
}

// SeaLevel уровень воды
func (g *Generator) SeaLevel() int {
	return g.BaseY + int(ShallowWaterMax*float64(g.Amplitude))
}

// Generate заполняет колонки прямоугольника [from, to] по X и Z.
// Блоки ниже рельефа - камень с коренной породой на BaseY-1.
func (g *Generator) Generate(w *Memory, from, to vec.Vec3) error {
	box := vec.NewBox(from, to)
	rng := rand.New(rand.NewSource(g.Seed + int64(box.Min.X)*31 + int64(box.Min.Z)*17))
	sea := g.SeaLevel()

	for z := box.Min.Z; z <= box.Max.Z; z++ {
		for x := box.Min.X; x <= box.Max.X; x++ {
			h := g.height.Noise2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale)
			bv := g.biome.Noise2D(float64(x)*g.BiomeScale, float64(z)*g.BiomeScale)
			biome := biomeFor(h, bv)
			top := g.BaseY + int(h*float64(g.Amplitude))

			if err := w.SetBlockState(vec.Vec3{X: x, Y: g.BaseY - 1, Z: z}, block.Bedrock, FlagsForce); err != nil {
				return err
			}
			for y := g.BaseY; y <= max(top, sea); y++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				state := surfaceFor(biome, y, top, sea)
				if state.IsAir() {
					continue
				}
				if err := w.SetBlockState(pos, state, FlagsForce); err != nil {
					return err
				}
			}
			for y := g.BaseY - 1; y <= max(top, sea)+1; y++ {
				w.SetBiome(vec.Vec3{X: x, Y: y, Z: z}, biome)
			}

			if top < sea {
				continue
			}
			above := vec.Vec3{X: x, Y: top + 1, Z: z}
			switch {
			case rng.Float64() < g.ChestChance:
				if err := g.placeChest(w, above, rng); err != nil {
					return err
				}
			case rng.Float64() < g.AnimalChance:
				w.AddEntity(NewMemoryEntity(animalFor(biome, rng), vec.Vec3Float{
					X: float64(x) + 0.5, Y: float64(top + 1), Z: float64(z) + 0.5,
				}))
			}
		}
	}
	return nil
}

// placeChest ставит сундук со случайным содержимым
func (g *Generator) placeChest(w *Memory, pos vec.Vec3, rng *rand.Rand) error {
	if err := w.SetBlockState(pos, block.Chest, FlagsForce); err != nil {
		return err
	}
	items := make([]map[string]any, 0, 3)
	for slot := 0; slot < 1+rng.Intn(3); slot++ {
		items = append(items, map[string]any{
			"Slot":  int8(slot),
			"id":    "minecraft:bread",
			"Count": int8(1 + rng.Intn(8)),
		})
	}
	rec := record.Compound{"id": "minecraft:chest", "Items": items}
	rec.SetIntTriple("x", "y", "z", pos.X, pos.Y, pos.Z)
	return w.AddBlockEntity(rec)
}

// biomeFor определяет биом на основе значений шума
func biomeFor(height, biomeValue float64) block.Biome {
	// Водные биомы в низинах
	if height < ShallowWaterMax {
		return block.Ocean
	}
	// Горные биомы на возвышенностях
	if height > MountainStart {
		return block.Mountains
	}
	// Шум в диапазоне 0..1, середина - равнины
	if biomeValue < 0.35 {
		return block.Desert
	} else if biomeValue > 0.65 {
		return block.Forest
	}
	return block.Plains
}

// surfaceFor возвращает состояние блока колонки на высоте y
func surfaceFor(biome block.Biome, y, top, sea int) block.State {
	switch {
	case y > top:
		if y <= sea {
			return block.Water
		}
		return block.Air
	case y < top-3:
		return block.Stone
	case biome == block.Mountains:
		return block.Stone
	case biome == block.Desert || biome == block.Ocean:
		return block.Sand
	case y == top:
		return block.Grass
	default:
		return block.Dirt
	}
}

func animalFor(biome block.Biome, rng *rand.Rand) string {
	if biome == block.Desert {
		return "minecraft:rabbit"
	}
	animals := []string{"minecraft:pig", "minecraft:cow", "minecraft:sheep"}
	return animals[rng.Intn(len(animals))]
}
