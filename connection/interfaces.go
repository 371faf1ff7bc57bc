package connection

import (
	"context"
	"io"
)

// Stream 与交互进程之间的双工字节流，会话期间由驱动方独占。
// 进程退出时 Read 返回 io.EOF（PTY 的 EIO 已在此层归一化）。
type Stream interface {
	io.Reader
	io.Writer
	// Close 关闭读写两个方向并释放底层进程/连接，可重复调用
	Close() error
}

// StreamFactory opens a Stream for a prepared Target.
type StreamFactory interface {
	Open(ctx context.Context, target Target) (Stream, error)
}
