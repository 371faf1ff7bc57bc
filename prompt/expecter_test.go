package prompt

import (
	"io"
	"regexp"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eioReader 模拟 Linux 上子进程退出后 PTY 返回 EIO
type eioReader struct{ sent bool }

func (r *eioReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "bye\r\n"), nil
	}
	return 0, syscall.EIO
}

func TestExpecter_Expect(t *testing.T) {
	re := regexp.MustCompile(`(?m)([Pp]assword:|\S+#)\s*$`)

	t.Run("should match prompt split across reads", func(t *testing.T) {
		pr, pw := io.Pipe()
		e := NewExpecter(pr)
		defer e.Stop()

		go func() {
			_, _ = pw.Write([]byte("User Access Verification\r\n\r\nPass"))
			_, _ = pw.Write([]byte("word: "))
		}()

		m, err := e.Expect(re, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "Password:", m[1])
		_ = pw.Close()
	})

	t.Run("should keep unconsumed output for next expect", func(t *testing.T) {
		pr, pw := io.Pipe()
		e := NewExpecter(pr)
		defer e.Stop()

		go func() {
			_, _ = pw.Write([]byte("Password: \r\nRouter#"))
		}()

		m, err := e.Expect(re, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "Password:", m[1])

		m, err = e.Expect(re, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "Router#", m[1])
		assert.Empty(t, e.Buffered())
		_ = pw.Close()
	})

	t.Run("should time out without error on silence", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()
		e := NewExpecter(pr)
		defer e.Stop()

		_, err := e.Expect(re, 20*time.Millisecond)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("should report stream end on EOF", func(t *testing.T) {
		pr, pw := io.Pipe()
		e := NewExpecter(pr)
		defer e.Stop()
		_ = pw.Close()

		_, err := e.Expect(re, time.Second)
		assert.ErrorIs(t, err, ErrStreamEnded)

		// 结束状态是粘滞的
		_, err = e.Expect(re, time.Second)
		assert.ErrorIs(t, err, ErrStreamEnded)
	})

	t.Run("should treat EIO as stream end", func(t *testing.T) {
		e := NewExpecter(&eioReader{})
		defer e.Stop()

		_, err := e.Expect(re, time.Second)
		assert.ErrorIs(t, err, ErrStreamEnded)
		assert.Equal(t, "bye\r\n", e.Buffered())
	})
}
