package inspector

import (
	"sync"
	"sync/atomic"
	"time"
)

const DefaultSubscriberBuffer = 256

// Subscriber 一個已連線的 stream 觀察者。事件先進入有界佇列，由連線自己的 goroutine 寫出。
type Subscriber struct {
	ID         uint64
	RemoteAddr string
	AttachedAt time.Time

	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Events 待寫出的 SSE frame
func (s *Subscriber) Events() <-chan []byte {
	return s.events
}

// Done 被移出 registry 後關閉
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// offer 非阻塞放入佇列；佇列已滿回傳 false。已關閉的訂閱者直接略過。
// events channel 永遠不 close，避免與並行中的 broadcast 發生 send on closed channel。
func (s *Subscriber) offer(frame []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.events <- frame:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Registry 目前連線中的訂閱者集合
type Registry struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
	nextID atomic.Uint64
}

func NewRegistry(buffer int) *Registry {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Registry{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Register 建立並加入訂閱者，回傳的 *Subscriber 即為之後 Unregister 用的 handle
func (r *Registry) Register(remoteAddr string) *Subscriber {
	sub := &Subscriber{
		ID:         r.nextID.Add(1),
		RemoteAddr: remoteAddr,
		AttachedAt: time.Now(),
		events:     make(chan []byte, r.buffer),
		done:       make(chan struct{}),
	}

	r.mu.Lock()
	r.subs[sub] = struct{}{}
	r.mu.Unlock()
	return sub
}

// Unregister 可重複呼叫；回傳此次是否真的移除
func (r *Registry) Unregister(sub *Subscriber) bool {
	if sub == nil {
		return false
	}
	r.mu.Lock()
	_, ok := r.subs[sub]
	delete(r.subs, sub)
	r.mu.Unlock()

	sub.close()
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Each 在 read lock 下逐一呼叫 fn；fn 不可阻塞也不可回頭修改 registry
func (r *Registry) Each(fn func(*Subscriber)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sub := range r.subs {
		fn(sub)
	}
}
