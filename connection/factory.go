package connection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charlesren/ylog"
)

// Registry 按协议分发到对应的 StreamFactory
type Registry struct {
	factories map[Protocol]StreamFactory
	metrics   MetricsCollector
	mu        sync.RWMutex
}

// NewRegistry returns a registry with the default factories: telnet, ssh
// and cu run under a PTY; sshlib and scrapli connect in-process.
func NewRegistry() *Registry {
	ptyFactory := &PTYFactory{}
	r := &Registry{
		factories: make(map[Protocol]StreamFactory),
		metrics:   NewMetricsCollector(),
	}
	r.Register(ProtocolTelnet, ptyFactory)
	r.Register(ProtocolSSH, ptyFactory)
	r.Register(ProtocolSerial, ptyFactory)
	r.Register(ProtocolSSHLib, &SSHFactory{})
	r.Register(ProtocolScrapli, &ScrapliFactory{})
	return r
}

// Register 注册（或替换）协议工厂
func (r *Registry) Register(p Protocol, f StreamFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[p] = f
}

func (r *Registry) Open(ctx context.Context, target Target) (Stream, error) {
	r.mu.RLock()
	f, ok := r.factories[target.Protocol]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownProtocol, target.Protocol)
	}

	if target.Protocol.Spawned() {
		ylog.Infof("connection", "Begin spawn: %s", target.CommandLine())
	} else {
		ylog.Infof("connection", "Begin connect: %s %s", target.Protocol, target.Address)
	}
	start := time.Now()
	s, err := f.Open(ctx, target)
	r.metrics.RecordOpenDuration(target.Protocol, time.Since(start))
	if err != nil {
		r.metrics.IncrementConnectionsFailed(target.Protocol)
		return nil, fmt.Errorf("open %s stream: %w", target.Protocol, err)
	}
	r.metrics.IncrementConnectionsCreated(target.Protocol)
	return &meteredStream{Stream: s, protocol: target.Protocol, collector: r.metrics}, nil
}

// Metrics returns a snapshot of per-protocol open/close counters.
func (r *Registry) Metrics() *MetricsSnapshot {
	return r.metrics.GetMetrics()
}

// LogMetrics 按协议输出连接指标，运行结束时调用
func (r *Registry) LogMetrics() {
	for _, line := range r.Metrics().Lines() {
		ylog.Infof("connection", "%s", line)
	}
}

// Lines formats the snapshot one protocol per line, sorted by protocol.
func (s *MetricsSnapshot) Lines() []string {
	protocols := make([]string, 0, len(s.ConnectionMetrics))
	for p := range s.ConnectionMetrics {
		protocols = append(protocols, string(p))
	}
	sort.Strings(protocols)

	lines := make([]string, 0, len(protocols))
	for _, p := range protocols {
		m := s.ConnectionMetrics[Protocol(p)]
		lines = append(lines, fmt.Sprintf("connections: protocol=%s created=%d failed=%d destroyed=%d active=%d failure_rate=%.2f max_open=%v",
			m.Protocol, m.Created, m.Failed, m.Destroyed, m.Active, m.FailureRate, m.MaxOpenDuration))
	}
	return lines
}
