package session

// Mode 会话权限模式
type Mode int

const (
	ModeNormal Mode = iota
	// ModePrivileged 已发送 enable 命令（可能仍在等待 enable 密码）
	ModePrivileged
)

func (m Mode) String() string {
	if m == ModePrivileged {
		return "privileged"
	}
	return "normal"
}

// State 单台主机会话的可变状态，每次会话新建，不跨主机复用。
type State struct {
	Mode        Mode
	LocalSerial bool
	Queue       *CommandQueue
	Guard       *AuthGuard

	// EscalationAnswered 特权模式下已应答过密码提示，此后再回到用户模式视为提权失败
	EscalationAnswered bool

	// Sent 已发送的命令数（不含凭据、enable、exit 等）
	Sent int
	// Closed 已发送 exit；Forced 为 true 时读循环立即结束
	Closed bool
	Forced bool
	Reason Reason
}

func NewState(commands []string, localSerial bool, maxAuthRetry int) *State {
	return &State{
		Mode:        ModeNormal,
		LocalSerial: localSerial,
		Queue:       NewCommandQueue(commands),
		Guard:       NewAuthGuard(maxAuthRetry),
	}
}
