package aggregator

import (
	"sync"
	"time"

	"github.com/charlesren/ylog"

	"github.com/charlesren/cli_thrower/session"
)

const defaultBufferSize = 16

// ResultHandler 结果处理器接口
type ResultHandler interface {
	HandleResult(results []session.Result) error
}

// Stats 聚合器统计
type Stats struct {
	TotalResults   int64
	SuccessResults int64
	FailedResults  int64
	LastFlush      time.Time
}

// Aggregator 收集各主机会话结果，缓冲满或 Flush 时分发给处理器。
// 会话按主机顺序执行，这里不需要后台 worker。
type Aggregator struct {
	handlers   []ResultHandler
	buffer     []session.Result
	bufferSize int
	mu         sync.Mutex

	stats struct {
		sync.RWMutex
		total     int64
		success   int64
		failed    int64
		lastFlush time.Time
	}
}

func New(bufferSize int) *Aggregator {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Aggregator{
		buffer:     make([]session.Result, 0, bufferSize),
		bufferSize: bufferSize,
	}
}

// AddHandler 添加结果处理器
func (a *Aggregator) AddHandler(handler ResultHandler) {
	a.mu.Lock()
	a.handlers = append(a.handlers, handler)
	n := len(a.handlers)
	a.mu.Unlock()
	ylog.Infof("aggregator", "added handler: %T (total handlers: %d)", handler, n)
}

// Submit 提交单台主机的结果
func (a *Aggregator) Submit(res session.Result) {
	a.updateStats(res)

	a.mu.Lock()
	a.buffer = append(a.buffer, res)
	shouldFlush := len(a.buffer) >= a.bufferSize
	a.mu.Unlock()

	ylog.Debugf("aggregator", "submitted result for %s (reason: %s, success: %t)", res.Hostname, res.Reason, res.Success())
	if shouldFlush {
		a.Flush()
	}
}

// Flush 把缓冲区内的结果交给全部处理器
func (a *Aggregator) Flush() {
	a.mu.Lock()
	if len(a.buffer) == 0 {
		a.mu.Unlock()
		return
	}
	results := make([]session.Result, len(a.buffer))
	copy(results, a.buffer)
	a.buffer = a.buffer[:0]
	handlers := append([]ResultHandler(nil), a.handlers...)
	a.mu.Unlock()

	successCount := countSuccess(results)
	if len(handlers) == 0 {
		ylog.Warnf("aggregator", "no handlers registered, dropping %d results (success: %d, failed: %d)",
			len(results), successCount, len(results)-successCount)
	}
	for _, handler := range handlers {
		if err := handler.HandleResult(results); err != nil {
			ylog.Errorf("aggregator", "handler %T failed to process %d results: %v", handler, len(results), err)
		}
	}

	a.stats.Lock()
	a.stats.lastFlush = time.Now()
	a.stats.Unlock()
	ylog.Infof("aggregator", "flushed %d results (success: %d, failed: %d)",
		len(results), successCount, len(results)-successCount)
}

func (a *Aggregator) GetStats() Stats {
	a.stats.RLock()
	defer a.stats.RUnlock()
	return Stats{
		TotalResults:   a.stats.total,
		SuccessResults: a.stats.success,
		FailedResults:  a.stats.failed,
		LastFlush:      a.stats.lastFlush,
	}
}

func (a *Aggregator) updateStats(res session.Result) {
	a.stats.Lock()
	defer a.stats.Unlock()
	a.stats.total++
	if res.Success() {
		a.stats.success++
	} else {
		a.stats.failed++
	}
}

func countSuccess(results []session.Result) int {
	n := 0
	for _, r := range results {
		if r.Success() {
			n++
		}
	}
	return n
}
