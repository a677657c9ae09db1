package service

import (
	"sync"
	"time"
)

// ChainEvent 星链状态事件，推送给创建者的状态面板。
// 只携带状态变化本身，不带被抽中的心愿内容，送愿人看不到揭晓结果。
type ChainEvent struct {
	Type      string    `json:"type"` // opened / deactivated
	CreatorID uint      `json:"-"`
	ChainID   uint      `json:"chain_id"`
	ShareCode string    `json:"share_code"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub 进程内事件中心，按创建者ID分发
type EventHub struct {
	mu   sync.RWMutex
	subs map[uint]map[chan ChainEvent]struct{}
}

var (
	eventHub     *EventHub
	eventHubOnce sync.Once
)

// GetEventHub 获取事件中心
func GetEventHub() *EventHub {
	eventHubOnce.Do(func() {
		eventHub = &EventHub{subs: make(map[uint]map[chan ChainEvent]struct{})}
	})
	return eventHub
}

// Subscribe 订阅某个创建者名下全部星链的事件，返回的取消函数必须调用
func (h *EventHub) Subscribe(creatorID uint) (<-chan ChainEvent, func()) {
	ch := make(chan ChainEvent, 8)
	h.mu.Lock()
	if h.subs[creatorID] == nil {
		h.subs[creatorID] = make(map[chan ChainEvent]struct{})
	}
	h.subs[creatorID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[creatorID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, creatorID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish 发布事件，慢订阅者直接丢弃不阻塞
func (h *EventHub) Publish(ev ChainEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.CreatorID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
