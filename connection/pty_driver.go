package connection

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/charlesren/ylog"
	"github.com/creack/pty"
)

// 关闭 PTY 后等待子进程退出的时间，超时则强制 kill
const reapTimeout = 3 * time.Second

// PTYFactory 在伪终端中启动 telnet/ssh/cu 等交互命令
type PTYFactory struct{}

func (f *PTYFactory) Open(ctx context.Context, target Target) (Stream, error) {
	if len(target.Args) == 0 {
		return nil, errors.New("empty spawn command")
	}
	cmd := exec.Command(target.Args[0], target.Args[1:]...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}
	ylog.Debugf("connection", "spawned pid %d: %s", cmd.Process.Pid, target.CommandLine())
	return &ptyStream{ptmx: ptmx, cmd: cmd}, nil
}

type ptyStream struct {
	ptmx      *os.File
	cmd       *exec.Cmd
	closeOnce sync.Once
	closeErr  error
}

func (s *ptyStream) Read(p []byte) (int, error) {
	n, err := s.ptmx.Read(p)
	if err != nil && isProcessGone(err) {
		return n, io.EOF
	}
	return n, err
}

// Write 直接写入 PTY master，不经过缓冲
func (s *ptyStream) Write(p []byte) (int, error) {
	return s.ptmx.Write(p)
}

func (s *ptyStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ptmx.Close()
		s.reap()
	})
	return s.closeErr
}

func (s *ptyStream) reap() {
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case err := <-done:
		ylog.Debugf("connection", "spawned process exited: %v", err)
	case <-time.After(reapTimeout):
		ylog.Warnf("connection", "spawned process %d did not exit, killing", s.cmd.Process.Pid)
		_ = s.cmd.Process.Kill()
		<-done
	}
}

// isProcessGone Linux 上子进程退出后读 PTY master 返回 EIO
func isProcessGone(err error) bool {
	return errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}
