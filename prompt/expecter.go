package prompt

import (
	"errors"
	"io"
	"os"
	"regexp"
	"sync"
	"syscall"
	"time"
)

var (
	ErrTimeout     = errors.New("expect timed out")
	ErrStreamEnded = errors.New("stream ended")
)

const (
	readChunkSize = 4096
	// 缓冲上限，超出时只保留尾部（提示符总在尾部）
	maxBufferSize  = 64 * 1024
	keepBufferTail = 4 * 1024
)

type chunk struct {
	data []byte
	err  error
}

// Expecter 在进程输出流上做 expect 匹配。
// 后台 goroutine 负责读取，Expect 带超时阻塞等待匹配。
type Expecter struct {
	chunks chan chunk
	done   chan struct{}
	once   sync.Once
	buf    []byte
	err    error
}

func NewExpecter(r io.Reader) *Expecter {
	e := &Expecter{
		chunks: make(chan chunk, 16),
		done:   make(chan struct{}),
	}
	go e.pump(r)
	return e
}

func (e *Expecter) pump(r io.Reader) {
	b := make([]byte, readChunkSize)
	for {
		n, err := r.Read(b)
		if n > 0 {
			data := make([]byte, n)
			copy(data, b[:n])
			select {
			case e.chunks <- chunk{data: data}:
			case <-e.done:
				return
			}
		}
		if err != nil {
			select {
			case e.chunks <- chunk{err: err}:
			case <-e.done:
			}
			return
		}
	}
}

// Expect blocks until re matches the buffered output and returns its
// submatches. Output up to the end of the match is consumed.
// It returns ErrTimeout when nothing matched within timeout and
// ErrStreamEnded once the stream is exhausted.
func (e *Expecter) Expect(re *regexp.Regexp, timeout time.Duration) ([]string, error) {
	if m := e.match(re); m != nil {
		return m, nil
	}
	if e.err != nil {
		return nil, e.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case c := <-e.chunks:
			if c.err != nil {
				e.err = normalizeReadErr(c.err)
				return nil, e.err
			}
			e.buf = append(e.buf, c.data...)
			if m := e.match(re); m != nil {
				return m, nil
			}
			e.trim()
		case <-timer.C:
			return nil, ErrTimeout
		}
	}
}

// Buffered returns output read but not yet consumed by a match.
func (e *Expecter) Buffered() string {
	return string(e.buf)
}

// Stop releases the reader goroutine. The underlying stream must be closed
// by its owner for a blocked Read to return.
func (e *Expecter) Stop() {
	e.once.Do(func() { close(e.done) })
}

func (e *Expecter) match(re *regexp.Regexp) []string {
	if len(e.buf) == 0 {
		return nil
	}
	loc := re.FindSubmatchIndex(e.buf)
	if loc == nil {
		return nil
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = string(e.buf[loc[2*i]:loc[2*i+1]])
		}
	}
	rest := make([]byte, len(e.buf)-loc[1])
	copy(rest, e.buf[loc[1]:])
	e.buf = rest
	return groups
}

func (e *Expecter) trim() {
	if len(e.buf) <= maxBufferSize {
		return
	}
	tail := make([]byte, keepBufferTail)
	copy(tail, e.buf[len(e.buf)-keepBufferTail:])
	e.buf = tail
}

// normalizeReadErr 把各种“进程已结束”的读错误统一为 ErrStreamEnded。
// Linux 上子进程退出后读 PTY master 会得到 EIO。
func normalizeReadErr(err error) error {
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, os.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, syscall.EIO):
		return ErrStreamEnded
	default:
		return err
	}
}
