package inspector

import (
	"inspector/internal/log"
	"inspector/internal/telemetry"

	"go.uber.org/zap"
)

// Dispatcher 把完成的 Record 推給所有訂閱者，並在新訂閱時提供歷史 replay。
//
// 新訂閱者先加入 registry 再取 snapshot：兩者之間完成的 record 可能同時出現在
// 歷史與 live event（at-least-once），但不會遺漏。
type Dispatcher struct {
	store    *LogStore
	registry *Registry
	envelope string
	logger   *zap.Logger
	metric   *telemetry.Metric
}

func NewDispatcher(
	store *LogStore,
	registry *Registry,
	envelope string,
	logger *zap.Logger,
	metric *telemetry.Metric,
) *Dispatcher {
	if envelope != EnvelopeTyped {
		envelope = EnvelopeLegacy
	}
	return &Dispatcher{
		store:    store,
		registry: registry,
		envelope: envelope,
		logger:   logger.Named(log.NameStream),
		metric:   metric,
	}
}

// Store 回傳底層 LogStore
func (d *Dispatcher) Store() *LogStore {
	return d.store
}

// Registry 回傳底層 Registry
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Subscribe 註冊 live event 後回傳 history frame；呼叫端必須先寫出 history 再消化 Events()
func (d *Dispatcher) Subscribe(remoteAddr string) (*Subscriber, []byte, error) {
	sub := d.registry.Register(remoteAddr)
	d.metric.SubscriberAttached()

	snapshot := d.store.Snapshot()
	history, err := EncodeHistory(snapshot)
	if err != nil {
		d.Unsubscribe(sub)
		return nil, nil, err
	}

	d.logger.Info("[Stream] subscriber attached",
		zap.Uint64("subscriber", sub.ID),
		zap.String("remote_addr", remoteAddr),
		zap.Int("history", len(snapshot)),
		zap.Int("subscribers", d.registry.Len()),
	)
	return sub, history, nil
}

// Unsubscribe 可重複呼叫
func (d *Dispatcher) Unsubscribe(sub *Subscriber) {
	if !d.registry.Unregister(sub) {
		return
	}
	d.metric.SubscriberDetached(false)
	d.logger.Info("[Stream] subscriber detached",
		zap.Uint64("subscriber", sub.ID),
		zap.String("remote_addr", sub.RemoteAddr),
		zap.Int("subscribers", d.registry.Len()),
	)
}

// Broadcast 對每個訂閱者做非阻塞 enqueue；佇列已滿的訂閱者會被移除並斷線。
// 不回傳錯誤，也不會因任何訂閱者而阻塞。
func (d *Dispatcher) Broadcast(rec *Record) {
	ev, err := EncodeRecord(rec, d.envelope)
	if err != nil {
		d.logger.Warn("[Stream] encode record failed", zap.Int64("id", rec.ID), zap.Error(err))
		return
	}

	var slow []*Subscriber
	d.registry.Each(func(sub *Subscriber) {
		if !sub.offer(ev) {
			slow = append(slow, sub)
		}
	})

	for _, sub := range slow {
		if !d.registry.Unregister(sub) {
			continue
		}
		d.metric.SubscriberDetached(true)
		d.logger.Warn("[Stream] subscriber evicted, queue full",
			zap.Uint64("subscriber", sub.ID),
			zap.String("remote_addr", sub.RemoteAddr),
			zap.Int64("record", rec.ID),
		)
	}
}

// EventSent 給 stream handler 回報已寫出的事件
func (d *Dispatcher) EventSent(kind string) {
	d.metric.EventSent(kind)
}
