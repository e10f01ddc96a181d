package block

import "sync"

// Registry интернирует значения и выдаёт им стабильные глобальные ID.
// Используется палитровыми контейнерами в прямом (direct) режиме.
//
// Реестр является явным объектом: каждый контекст (мир, тест, десериализатор)
// держит свой экземпляр, глобального изменяемого состояния нет.
type Registry[T comparable] struct {
	mu     sync.RWMutex
	ids    map[T]int
	values []T
}

// NewRegistry создаёт реестр и регистрирует переданные значения по порядку
func NewRegistry[T comparable](initial ...T) *Registry[T] {
	r := &Registry[T]{ids: make(map[T]int)}
	for _, v := range initial {
		r.ID(v)
	}
	return r
}

// ID возвращает глобальный ID значения, регистрируя его при первом обращении
func (r *Registry[T]) ID(v T) int {
	r.mu.RLock()
	id, ok := r.ids[v]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Повторная проверка под write lock
	if id, ok := r.ids[v]; ok {
		return id
	}
	id = len(r.values)
	r.ids[v] = id
	r.values = append(r.values, v)
	return id
}

// Lookup возвращает ID без регистрации
func (r *Registry[T]) Lookup(v T) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[v]
	return id, ok
}

// ByID возвращает значение по глобальному ID
func (r *Registry[T]) ByID(id int) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= len(r.values) {
		var zero T
		return zero, false
	}
	return r.values[id], true
}

// Size количество зарегистрированных значений
func (r *Registry[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}
