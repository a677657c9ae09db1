package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHubPublishSubscribe(t *testing.T) {
	hub := GetEventHub()

	ch, cancel := hub.Subscribe(101)
	defer cancel()

	hub.Publish(ChainEvent{Type: "opened", CreatorID: 101, ChainID: 7, ShareCode: "abc"})

	select {
	case ev := <-ch:
		assert.Equal(t, "opened", ev.Type)
		assert.Equal(t, uint(7), ev.ChainID)
	case <-time.After(time.Second):
		t.Fatal("没有收到事件")
	}

	// 别人的事件不串台
	hub.Publish(ChainEvent{Type: "opened", CreatorID: 999, ChainID: 8})
	select {
	case ev := <-ch:
		t.Fatalf("收到了不属于本人的事件: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventHubCancel(t *testing.T) {
	hub := GetEventHub()

	ch, cancel := hub.Subscribe(202)
	cancel()

	hub.Publish(ChainEvent{Type: "opened", CreatorID: 202})
	select {
	case <-ch:
		t.Fatal("取消后不应再收到事件")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventHubSlowSubscriberDropped(t *testing.T) {
	hub := GetEventHub()

	ch, cancel := hub.Subscribe(303)
	defer cancel()

	// 塞满缓冲后继续发布不会阻塞
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			hub.Publish(ChainEvent{Type: "opened", CreatorID: 303})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("慢订阅者阻塞了发布")
	}
	require.NotEmpty(t, ch)
}
