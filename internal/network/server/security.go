package server

import (
	"log"
	"net/http"
	"sync"
	"time"
)

// MessageRateLimiter 单连接消息速率限制器
type MessageRateLimiter struct {
	counts map[string]*messageRate
	mu     sync.Mutex

	maxPerSecond int
}

// messageRate 连接速率记录
type messageRate struct {
	count       int
	windowStart time.Time
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		counts:       make(map[string]*messageRate),
		maxPerSecond: maxPerSecond,
	}
}

// Allow 检查连接是否允许再发一条消息
func (ml *MessageRateLimiter) Allow(clientID string) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := time.Now()
	rate, exists := ml.counts[clientID]
	if !exists {
		ml.counts[clientID] = &messageRate{count: 1, windowStart: now}
		return true
	}

	if now.Sub(rate.windowStart) >= time.Second {
		rate.count = 0
		rate.windowStart = now
	}

	rate.count++
	if rate.count > ml.maxPerSecond {
		log.Printf("⚠️ 连接 %s 消息过于频繁 (%d/s)", clientID, rate.count)
		return false
	}
	return true
}

// Remove 连接断开时清理记录
func (ml *MessageRateLimiter) Remove(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.counts, clientID)
}

// OriginChecker 来源验证器
type OriginChecker struct {
	allowed  map[string]bool
	allowAll bool
}

// NewOriginChecker 创建来源验证器。未配置来源时允许所有。
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowed:  make(map[string]bool, len(origins)),
		allowAll: len(origins) == 0,
	}
	for _, o := range origins {
		oc.allowed[o] = true
	}
	return oc
}

// Check 验证请求来源。无 Origin 头的请求（非浏览器客户端）放行。
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowed[origin]
}
