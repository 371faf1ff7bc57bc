package connection

import (
	"io"
	"sync"
	"time"

	"github.com/charlesren/ylog"
	"github.com/scrapli/scrapligo/driver/network"
)

// channel 中暂无数据时的轮询间隔
const scrapliPollInterval = 20 * time.Millisecond

// scrapliStream 把 scrapligo channel 适配为 Stream
type scrapliStream struct {
	driver *network.Driver
	mu     sync.Mutex
	closed bool
	// 上次读到但未被调用方取走的数据
	pending []byte
}

func newScrapliStream(driver *network.Driver) *scrapliStream {
	return &scrapliStream{driver: driver}
}

func (s *scrapliStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *scrapliStream) Read(p []byte) (int, error) {
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}
	for {
		if s.isClosed() {
			return 0, io.EOF
		}
		b, err := s.driver.Channel.Read()
		if err != nil {
			ylog.Debugf("scrapli", "channel read: %v", err)
			return 0, io.EOF
		}
		if len(b) == 0 {
			time.Sleep(scrapliPollInterval)
			continue
		}
		n := copy(p, b)
		s.pending = b[n:]
		return n, nil
	}
}

func (s *scrapliStream) Write(p []byte) (int, error) {
	if s.isClosed() {
		return 0, io.ErrClosedPipe
	}
	if err := s.driver.Channel.Write(p, false); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *scrapliStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.driver.Close()
}
