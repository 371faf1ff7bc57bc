package manager

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charlesren/cli_thrower/connection"
)

type MockOpener struct {
	OpenFunc func(ctx context.Context, target connection.Target) (connection.Stream, error)

	mu      sync.Mutex
	targets []connection.Target
}

func (m *MockOpener) Open(ctx context.Context, target connection.Target) (connection.Stream, error) {
	m.mu.Lock()
	m.targets = append(m.targets, target)
	m.mu.Unlock()
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, target)
	}
	return nil, errors.New("mock not implemented")
}

func (m *MockOpener) Targets() []connection.Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]connection.Target(nil), m.targets...)
}

// routerStream 始终停在特权模式提示符，收到 exit 后断开
type routerStream struct {
	out     chan []byte
	pending []byte

	mu     sync.Mutex
	writes []string
	closed int
	hungUp bool
}

func newRouterStream() *routerStream {
	s := &routerStream{out: make(chan []byte, 16)}
	s.out <- []byte("Router#")
	return s
}

func (s *routerStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		b, ok := <-s.out
		if !ok {
			return 0, io.EOF
		}
		s.pending = b
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *routerStream) Write(p []byte) (int, error) {
	line := strings.TrimSuffix(string(p), "\n")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hungUp {
		return 0, io.ErrClosedPipe
	}
	s.writes = append(s.writes, line)
	if line == "exit" {
		s.hangupLocked()
	} else {
		s.out <- []byte("\r\nRouter#")
	}
	return len(p), nil
}

func (s *routerStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	s.hangupLocked()
	return nil
}

func (s *routerStream) hangupLocked() {
	if !s.hungUp {
		s.hungUp = true
		close(s.out)
	}
}

func (s *routerStream) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *routerStream) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
