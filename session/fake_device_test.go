package session

import (
	"io"
	"strings"
	"sync"

	"github.com/charlesren/cli_thrower/prompt"
)

// fakeDevice 模拟设备终端：记录每次写入，并按 respond 回调产生输出
type fakeDevice struct {
	out     chan []byte
	pending []byte

	mu         sync.Mutex
	writes     []string
	closeCount int
	hungUp     bool

	respond  func(d *fakeDevice, line string)
	writeErr error
}

func newFakeDevice(respond func(d *fakeDevice, line string)) *fakeDevice {
	return &fakeDevice{
		out:     make(chan []byte, 64),
		respond: respond,
	}
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	if len(d.pending) == 0 {
		b, ok := <-d.out
		if !ok {
			return 0, io.EOF
		}
		d.pending = b
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	line := strings.TrimSuffix(string(p), "\n")
	d.mu.Lock()
	closed := d.hungUp
	d.writes = append(d.writes, line)
	d.mu.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	if d.respond != nil {
		d.respond(d, line)
	}
	return len(p), nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	d.closeCount++
	d.mu.Unlock()
	d.hangup()
	return nil
}

func (d *fakeDevice) send(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hungUp {
		return
	}
	d.out <- []byte(s)
}

func (d *fakeDevice) hangup() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hungUp {
		d.hungUp = true
		close(d.out)
	}
}

func (d *fakeDevice) Writes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.writes...)
}

func (d *fakeDevice) CloseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeCount
}

func routerSet() *prompt.Set {
	return &prompt.Set{
		Password:       `[Pp]assword:`,
		Username:       `[Uu]sername:`,
		NormalMode:     `Router>`,
		PrivilegedMode: `Router#`,
		Confirmation:   `\[confirm\]`,
		SubPrompt2:     `--More--`,
		EnableCommand:  "enable",
	}
}
