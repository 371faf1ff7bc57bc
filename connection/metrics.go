package connection

import (
	"sync"
	"time"
)

// MetricsCollector 连接打开/关闭计数
type MetricsCollector interface {
	IncrementConnectionsCreated(protocol Protocol)
	IncrementConnectionsFailed(protocol Protocol)
	IncrementConnectionsDestroyed(protocol Protocol)
	RecordOpenDuration(protocol Protocol, duration time.Duration)
	GetMetrics() *MetricsSnapshot
	Reset()
}

// MetricsSnapshot 指标快照
type MetricsSnapshot struct {
	Timestamp         time.Time                       `json:"timestamp"`
	ConnectionMetrics map[Protocol]*ConnectionMetrics `json:"connection_metrics"`
}

// ConnectionMetrics 单一协议的连接指标
type ConnectionMetrics struct {
	Protocol  Protocol `json:"protocol"`
	Created   int64    `json:"created"`
	Failed    int64    `json:"failed"`
	Destroyed int64    `json:"destroyed"`
	// Active 已打开且尚未关闭的流
	Active int64 `json:"active"`

	TotalOpenDuration time.Duration `json:"total_open_duration"`
	MaxOpenDuration   time.Duration `json:"max_open_duration"`
	FailureRate       float64       `json:"failure_rate"`
}

type DefaultMetricsCollector struct {
	mu      sync.Mutex
	metrics map[Protocol]*ConnectionMetrics
}

func NewMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{metrics: make(map[Protocol]*ConnectionMetrics)}
}

func (c *DefaultMetricsCollector) get(p Protocol) *ConnectionMetrics {
	m, ok := c.metrics[p]
	if !ok {
		m = &ConnectionMetrics{Protocol: p}
		c.metrics[p] = m
	}
	return m
}

func (c *DefaultMetricsCollector) IncrementConnectionsCreated(p Protocol) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.get(p)
	m.Created++
	m.Active++
}

func (c *DefaultMetricsCollector) IncrementConnectionsFailed(p Protocol) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.get(p).Failed++
}

func (c *DefaultMetricsCollector) IncrementConnectionsDestroyed(p Protocol) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.get(p)
	m.Destroyed++
	if m.Active > 0 {
		m.Active--
	}
}

func (c *DefaultMetricsCollector) RecordOpenDuration(p Protocol, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.get(p)
	m.TotalOpenDuration += d
	if d > m.MaxOpenDuration {
		m.MaxOpenDuration = d
	}
}

// GetMetrics returns a copy of the current counters.
func (c *DefaultMetricsCollector) GetMetrics() *MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := &MetricsSnapshot{
		Timestamp:         time.Now(),
		ConnectionMetrics: make(map[Protocol]*ConnectionMetrics, len(c.metrics)),
	}
	for p, m := range c.metrics {
		cp := *m
		if attempts := cp.Created + cp.Failed; attempts > 0 {
			cp.FailureRate = float64(cp.Failed) / float64(attempts)
		}
		snap.ConnectionMetrics[p] = &cp
	}
	return snap
}

func (c *DefaultMetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[Protocol]*ConnectionMetrics)
}

// meteredStream 关闭时记录一次 destroyed
type meteredStream struct {
	Stream
	protocol  Protocol
	collector MetricsCollector
	once      sync.Once
}

func (s *meteredStream) Close() error {
	err := s.Stream.Close()
	s.once.Do(func() { s.collector.IncrementConnectionsDestroyed(s.protocol) })
	return err
}
