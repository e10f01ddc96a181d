package block

// Biome идентификатор региональной классификации (биома)
type Biome string

const (
	Plains       Biome = "minecraft:plains"
	Ocean        Biome = "minecraft:ocean"
	Desert       Biome = "minecraft:desert"
	Forest       Biome = "minecraft:forest"
	Mountains    Biome = "minecraft:windswept_hills"
	TheVoid      Biome = "minecraft:the_void"
	DefaultBiome Biome = Plains
)

func (b Biome) String() string {
	return string(b)
}

// NewBiomeRegistry реестр биомов; биом по умолчанию имеет ID 0
func NewBiomeRegistry() *Registry[Biome] {
	return NewRegistry(DefaultBiome)
}
