package marker

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/Betrayd/game-maps/internal/record"
)

// Registry таблица фабрик маркеров
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	log       *logging.Logger
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		log:       logging.GetComponentLogger("marker"),
	}
}

// NewDefaultRegistry создаёт реестр со встроенными типами
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(PointType, func() Marker { return &Point{} })
	r.MustRegister(SpawnType, func() Marker { return &Spawn{} })
	return r
}

// Register добавляет фабрику; повторная регистрация идентификатора запрещена
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" || factory == nil {
		return fmt.Errorf("marker type id and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("marker type %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister как Register, но паникует при ошибке
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Registered возвращает отсортированный список типов
func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Create создаёт пустой маркер типа id
func (r *Registry) Create(id string) (Marker, bool) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Encode сериализует маркер: {id, Pos: [x,y,z], Rot: [yaw, pitch], ...поля типа}
func (r *Registry) Encode(m Marker) record.Compound {
	rec := record.Compound{"id": m.Type()}
	p := m.Anchor()
	rec.SetDoubleList("Pos", p.Pos.X, p.Pos.Y, p.Pos.Z)
	rec.SetFloatList("Rot", p.Yaw, p.Pitch)
	m.WriteCustom(rec)
	return rec
}

// Decode восстанавливает маркер по тегу типа.
// Незарегистрированный тип или повреждённая запись дают (nil, false) и
// запись в лог; это не ошибка.
func (r *Registry) Decode(rec record.Compound) (Marker, bool) {
	id, _ := rec.String("id")
	m, ok := r.Create(id)
	if !ok {
		r.log.Warn("Пропущен маркер незарегистрированного типа %q", id)
		return nil, false
	}

	pos, ok := rec.DoubleList("Pos")
	if !ok || len(pos) != 3 {
		r.log.Warn("Маркер %s без корректной позиции, пропущен", id)
		return nil, false
	}
	p := m.Anchor()
	p.Pos.X, p.Pos.Y, p.Pos.Z = pos[0], pos[1], pos[2]

	if rot, ok := rec.FloatList("Rot"); ok && len(rot) == 2 {
		p.Yaw, p.Pitch = rot[0], rot[1]
	}

	if err := m.ReadCustom(rec); err != nil {
		r.log.Warn("Маркер %s: ошибка чтения полей: %v", id, err)
		return nil, false
	}
	return m, true
}
