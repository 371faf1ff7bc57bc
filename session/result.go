package session

import "time"

// Reason 会话结束原因
type Reason string

const (
	ReasonCompleted        Reason = "completed"
	ReasonStreamEnded      Reason = "stream_ended"
	ReasonAuthRetry        Reason = "auth_retry_exceeded"
	ReasonEscalationFailed Reason = "escalation_failed"
	ReasonWriteFailed      Reason = "write_failed"
	ReasonTimeout          Reason = "timeout"
	ReasonCanceled         Reason = "canceled"
	ReasonSkipped          Reason = "skipped"
	ReasonError            Reason = "error"
)

// Result 单台主机的执行结果
type Result struct {
	Hostname     string
	Reason       Reason
	CommandsSent int
	Remaining    int
	// ExitSent 会话结束前已发送 exit
	ExitSent  bool
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Success reports whether every queued command was sent.
func (r Result) Success() bool {
	switch r.Reason {
	case ReasonCompleted, ReasonStreamEnded:
		return r.Err == nil && r.Remaining == 0
	default:
		return false
	}
}
