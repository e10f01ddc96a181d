package cache

import (
	"context"
	"sync"
)

// Invalidator рассылает и принимает уведомления об изменении карт по имени.
type Invalidator interface {
	// PublishInvalidation отправляет уведомление об инвалидации.
	PublishInvalidation(ctx context.Context, name string) error

	// SubscribeInvalidations подписывается на уведомления других узлов.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	// Close закрывает соединение.
	Close() error
}

// InvalidationHandler обрабатывает уведомление об инвалидации карты.
type InvalidationHandler func(name string) error

// NoopInvalidator используется, когда межузловая инвалидация не настроена.
// Опубликованные имена запоминаются, что удобно в тестах.
type NoopInvalidator struct {
	mu        sync.Mutex
	published []string
}

func (n *NoopInvalidator) PublishInvalidation(_ context.Context, name string) error {
	n.mu.Lock()
	n.published = append(n.published, name)
	n.mu.Unlock()
	return nil
}

func (n *NoopInvalidator) SubscribeInvalidations(context.Context, InvalidationHandler) error {
	return nil
}

func (n *NoopInvalidator) Close() error { return nil }

// Published имена, переданные в PublishInvalidation
func (n *NoopInvalidator) Published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.published...)
}
