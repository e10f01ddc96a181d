package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Betrayd/game-maps/internal/logging"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

var natsLogger = logging.GetComponentLogger("invalidator")

// NATSInvalidator рассылает инвалидации карт между узлами через NATS Pub/Sub.
//
// Собственные сообщения узла игнорируются; повторно доставленное сообщение
// (тот же ID в окне дедупликации) обрабатывается один раз.
type NATSInvalidator struct {
	conn    *nats.Conn
	config  *InvalidatorConfig
	subject string
	nodeID  string

	subMu        sync.Mutex
	subscription *nats.Subscription
	handler      InvalidationHandler

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Дедупликация по ID сообщения
	recent   map[string]time.Time
	recentMu sync.Mutex

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig содержит конфигурацию для NATS invalidator.
type InvalidatorConfig struct {
	NATSURL string
	Subject string

	MaxReconnects int
	ReconnectWait time.Duration

	DedupeWindow   time.Duration
	PublishTimeout time.Duration
}

// InvalidationMessage сообщение об изменении карты
type InvalidationMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

// NewNATSInvalidator подключается к NATS. Пустой nodeID заменяется случайным UUID.
func NewNATSInvalidator(config *InvalidatorConfig, nodeID string) (*NATSInvalidator, error) {
	cfg := *config
	if cfg.Subject == "" {
		cfg.Subject = "gamemaps.invalidate"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.DedupeWindow == 0 {
		cfg.DedupeWindow = 5 * time.Second
	}
	if cfg.PublishTimeout == 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}

	opts := []nats.Option{
		nats.Name("gamemaps-" + nodeID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			natsLogger.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			natsLogger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			natsLogger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := &NATSInvalidator{
		conn:    conn,
		config:  &cfg,
		subject: cfg.Subject,
		nodeID:  nodeID,
		stopCh:  make(chan struct{}),
		recent:  make(map[string]time.Time),
	}
	n.startDedupeCleanup()

	natsLogger.Info("NATS invalidator initialized: %s (subject: %s, node: %s)", cfg.NATSURL, cfg.Subject, nodeID)
	return n, nil
}

// NodeID идентификатор узла
func (n *NATSInvalidator) NodeID() string { return n.nodeID }

// PublishInvalidation сообщает другим узлам, что карта name изменилась
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, name string) error {
	msg := &InvalidationMessage{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		NodeID:    n.nodeID,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		natsLogger.Error("Failed to publish invalidation for %s: %v", name, err)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.PublishTimeout)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to flush invalidation: %w", err)
	}

	atomic.AddInt64(&n.publishedCount, 1)
	natsLogger.Debug("Published invalidation for map: %s", name)
	return nil
}

// SubscribeInvalidations подписывается на уведомления других узлов
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	if n.subscription != nil {
		return fmt.Errorf("already subscribed to invalidations")
	}

	n.handler = handler
	sub, err := n.conn.Subscribe(n.subject, n.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopCh:
		}
		n.unsubscribe()
	}()

	natsLogger.Info("Subscribed to map invalidations on subject: %s", n.subject)
	return nil
}

// Close закрывает соединение с NATS
func (n *NATSInvalidator) Close() error {
	n.stopOnce.Do(func() {
		close(n.stopCh)
		n.wg.Wait()
		n.unsubscribe()
		n.conn.Close()
	})
	return nil
}

// Stats счётчики публикаций, принятых сообщений и ошибок
func (n *NATSInvalidator) Stats() (published, received, errors int64) {
	return atomic.LoadInt64(&n.publishedCount),
		atomic.LoadInt64(&n.receivedCount),
		atomic.LoadInt64(&n.errorsCount)
}

func (n *NATSInvalidator) handleMessage(msg *nats.Msg) {
	var m InvalidationMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		natsLogger.Error("Failed to unmarshal invalidation message: %v", err)
		return
	}
	if m.NodeID == n.nodeID {
		return
	}
	if !n.firstSeen(m.ID) {
		natsLogger.Debug("Ignoring duplicate invalidation %s for %s", m.ID, m.Name)
		return
	}
	atomic.AddInt64(&n.receivedCount, 1)

	n.subMu.Lock()
	handler := n.handler
	n.subMu.Unlock()
	if handler == nil {
		return
	}
	if err := handler(m.Name); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		natsLogger.Error("Invalidation handler failed for %s: %v", m.Name, err)
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	if n.subscription == nil {
		return
	}
	if err := n.subscription.Unsubscribe(); err != nil && n.conn.IsConnected() {
		natsLogger.Error("Failed to unsubscribe from invalidations: %v", err)
	}
	n.subscription = nil
}

// firstSeen отмечает ID и сообщает, встречался ли он в окне дедупликации
func (n *NATSInvalidator) firstSeen(id string) bool {
	n.recentMu.Lock()
	defer n.recentMu.Unlock()
	if t, ok := n.recent[id]; ok && time.Since(t) < n.config.DedupeWindow {
		return false
	}
	n.recent[id] = time.Now()
	return true
}

func (n *NATSInvalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ticker := time.NewTicker(n.config.DedupeWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n.cleanupDedupe()
			case <-n.stopCh:
				return
			}
		}
	}()
}

func (n *NATSInvalidator) cleanupDedupe() {
	n.recentMu.Lock()
	defer n.recentMu.Unlock()
	now := time.Now()
	for id, ts := range n.recent {
		if now.Sub(ts) > n.config.DedupeWindow {
			delete(n.recent, id)
		}
	}
}
