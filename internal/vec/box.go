package vec

// SectionPos координаты секции 16x16x16
type SectionPos struct {
	X int
	Y int
	Z int
}

// Origin возвращает минимальный воксель секции
func (s SectionPos) Origin() Vec3 {
	return Vec3{X: s.X << 4, Y: s.Y << 4, Z: s.Z << 4}
}

// Add сдвигает координаты секции
func (s SectionPos) Add(other SectionPos) SectionPos {
	return SectionPos{X: s.X + other.X, Y: s.Y + other.Y, Z: s.Z + other.Z}
}

// Sub вычитает координаты секции
func (s SectionPos) Sub(other SectionPos) SectionPos {
	return SectionPos{X: s.X - other.X, Y: s.Y - other.Y, Z: s.Z - other.Z}
}

// Less задаёт порядок Y, Z, X для детерминированного обхода
func (s SectionPos) Less(other SectionPos) bool {
	if s.Y != other.Y {
		return s.Y < other.Y
	}
	if s.Z != other.Z {
		return s.Z < other.Z
	}
	return s.X < other.X
}

// Box включительный осевой параллелепипед в координатах вокселей
type Box struct {
	Min Vec3
	Max Vec3
}

// NewBox строит бокс по двум углам, заданным в любом порядке
func NewBox(a, b Vec3) Box {
	return Box{Min: Min(a, b), Max: Max(a, b)}
}

// SectionBox возвращает воксельный бокс, покрывающий секции от c1 до c2 включительно
func SectionBox(c1, c2 SectionPos) Box {
	lo := SectionPos{X: min(c1.X, c2.X), Y: min(c1.Y, c2.Y), Z: min(c1.Z, c2.Z)}
	hi := SectionPos{X: max(c1.X, c2.X), Y: max(c1.Y, c2.Y), Z: max(c1.Z, c2.Z)}
	return Box{
		Min: lo.Origin(),
		Max: hi.Origin().Add(Vec3{X: 15, Y: 15, Z: 15}),
	}
}

// Contains проверяет попадание точки в бокс (границы включены)
func (b Box) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Size возвращает размеры бокса по осям
func (b Box) Size() Vec3 {
	return Vec3{
		X: b.Max.X - b.Min.X + 1,
		Y: b.Max.Y - b.Min.Y + 1,
		Z: b.Max.Z - b.Min.Z + 1,
	}
}

// Volume количество вокселей в боксе
func (b Box) Volume() int64 {
	s := b.Size()
	return int64(s.X) * int64(s.Y) * int64(s.Z)
}

// ForEach обходит все воксели бокса в порядке X, Z, Y (Y внешний)
func (b Box) ForEach(fn func(p Vec3)) {
	for y := b.Min.Y; y <= b.Max.Y; y++ {
		for z := b.Min.Z; z <= b.Max.Z; z++ {
			for x := b.Min.X; x <= b.Max.X; x++ {
				fn(Vec3{X: x, Y: y, Z: z})
			}
		}
	}
}
