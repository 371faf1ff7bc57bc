package session

import (
	"fmt"
	"io"

	"github.com/charlesren/ylog"

	"github.com/charlesren/cli_thrower/prompt"
	"github.com/charlesren/cli_thrower/render"
)

const (
	DefaultExitCommand = "exit"
	confirmAnswer      = "yes"
)

// Dispatcher 根据提示符类别决定写回内容。自身不保存会话状态，
// 所有可变状态都在传入的 *State 中。
type Dispatcher struct {
	w             io.WriteCloser
	renderer      *render.Renderer
	enableCommand string
	exitCommand   string
	tag           string
}

func NewDispatcher(w io.WriteCloser, renderer *render.Renderer, enableCommand, exitCommand, tag string) *Dispatcher {
	if exitCommand == "" {
		exitCommand = DefaultExitCommand
	}
	if tag == "" {
		tag = "session"
	}
	return &Dispatcher{
		w:             w,
		renderer:      renderer,
		enableCommand: enableCommand,
		exitCommand:   exitCommand,
		tag:           tag,
	}
}

// Dispatch handles one classified prompt.
func (d *Dispatcher) Dispatch(st *State, kind prompt.Kind, text string) {
	switch kind {
	case prompt.KindUsername:
		d.write(st, "Send username: ", d.renderer.Username(), false)
	case prompt.KindPassword, prompt.KindEnablePassword:
		privileged := st.Mode == ModePrivileged
		if d.write(st, "Send password", d.renderer.Password(privileged), true) && privileged {
			st.EscalationAnswered = true
		}
	case prompt.KindNormalMode:
		d.execInNormalMode(st)
	case prompt.KindPrivilegedMode:
		d.execInPrivilegedMode(st)
	case prompt.KindConfirmation:
		d.write(st, "Send yes: ", confirmAnswer, false)
	case prompt.KindSubPrompt1, prompt.KindSubPrompt2:
		d.write(st, "Send return: ", "", false)
	case prompt.KindUnknown:
		ylog.Errorf(d.tag, "Unknown prompt %s", text)
	default:
		ylog.Errorf(d.tag, "Unhandled prompt kind %s: %s", kind, text)
	}
}

func (d *Dispatcher) execInNormalMode(st *State) {
	if st.Queue.Empty() {
		d.Close(st, ReasonCompleted)
		return
	}
	if st.Mode == ModePrivileged {
		if !st.EscalationAnswered {
			// enable 之前缓冲的重复提示符，忽略
			ylog.Debugf(d.tag, "normal mode prompt while waiting for enable, ignored")
			return
		}
		// enable 密码已应答仍回到用户模式，不再重复提权
		ylog.Errorf(d.tag, "Close: privilege escalation failed, %d commands not sent", st.Queue.Len())
		d.ForceClose(st, ReasonEscalationFailed)
		return
	}
	if d.write(st, "Send enable command: ", d.enableCommand, false) {
		st.Mode = ModePrivileged
	}
}

func (d *Dispatcher) execInPrivilegedMode(st *State) {
	command, ok := st.Queue.Pop()
	if !ok {
		d.Close(st, ReasonCompleted)
		return
	}
	if d.write(st, "Send command: ", d.renderer.Command(command), false) {
		st.Sent++
	}
}

// Close sends the exit command. Local serial sessions also close both
// directions of the stream; other transports end when the process exits.
func (d *Dispatcher) Close(st *State, reason Reason) {
	if st.Reason == "" {
		st.Reason = reason
	}
	st.Closed = true
	d.write(st, "Send break: ", d.exitCommand, false)
	if st.LocalSerial {
		ylog.Infof(d.tag, "Close IO for spawn command")
		if err := d.w.Close(); err != nil {
			ylog.Warnf(d.tag, "close stream: %v", err)
		}
		st.Forced = true
	}
}

// ForceClose discards the remaining queue, closes the session and stops
// the read loop.
func (d *Dispatcher) ForceClose(st *State, reason Reason) {
	st.Queue.Clear()
	st.Reason = reason
	d.Close(st, reason)
	st.Forced = true
}

// write 写入一行并记录日志；secret 为 true 时不记录内容
func (d *Dispatcher) write(st *State, message, command string, secret bool) bool {
	if secret {
		ylog.Infof(d.tag, "%s", message)
	} else {
		ylog.Infof(d.tag, "%s%s", message, command)
	}

	if _, err := d.w.Write([]byte(command + "\n")); err != nil {
		if secret {
			ylog.Errorf(d.tag, "Try to write secret, but writer closed: %v", err)
		} else {
			ylog.Errorf(d.tag, "Try to write %s, but writer closed: %v", command, err)
		}
		st.Queue.Clear()
		if st.Reason == "" {
			st.Reason = ReasonWriteFailed
		}
		st.Forced = true
		return false
	}
	return true
}

// WriteRaw writes data as is, without the trailing newline.
func (d *Dispatcher) WriteRaw(st *State, message string, data []byte) error {
	ylog.Infof(d.tag, "%s", message)
	if _, err := d.w.Write(data); err != nil {
		st.Forced = true
		if st.Reason == "" {
			st.Reason = ReasonWriteFailed
		}
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
