package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：在流量峰值时对入口进行限速，避免缓存与数据库被过载；按环境变量开关与速率配置。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := time.Now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wrap: 按 RATE_LIMIT_ENABLED / RATE_LIMIT_QPS 对整个入口限速
func Wrap(next http.Handler) http.Handler {
	if os.Getenv("RATE_LIMIT_ENABLED") != "true" {
		return next
	}
	qps := 200
	if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
		if n, e := strconv.Atoi(s); e == nil && n > 0 {
			qps = n
		}
	}
	tb := &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix()}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MinuteBucket: 分钟粒度令牌桶，给上传这类重操作单独限速
// 约束：与入口限速独立计数；容量为每分钟允许的次数
type MinuteBucket struct {
	capacity int
	tokens   int
	lastMin  int64
	mu       sync.Mutex
}

func NewMinuteBucket(perMinute int) *MinuteBucket {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &MinuteBucket{capacity: perMinute, tokens: perMinute, lastMin: time.Now().Unix() / 60}
}

func (mb *MinuteBucket) Allow() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	nowMin := time.Now().Unix() / 60
	if mb.lastMin != nowMin {
		mb.lastMin = nowMin
		mb.tokens = mb.capacity
	}
	if mb.tokens > 0 {
		mb.tokens--
		return true
	}
	return false
}
