package session

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/charlesren/ylog"

	"github.com/charlesren/cli_thrower/connection"
	"github.com/charlesren/cli_thrower/internal/config"
	"github.com/charlesren/cli_thrower/prompt"
	"github.com/charlesren/cli_thrower/render"
)

const (
	DefaultTimeout   = 60 * time.Second
	DefaultIdleLimit = 3

	serialConnectTimeout = time.Second
)

var serialConnected = regexp.MustCompile(`(?m)^Connected\.`)

// Options 会话参数
type Options struct {
	// Timeout 单次等待提示符的超时
	Timeout time.Duration
	// IdleLimit 连续超时多少次后结束会话，0 表示一直等待
	IdleLimit    int
	MaxAuthRetry int
	ExitCommand  string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Timeout:      DefaultTimeout,
		IdleLimit:    DefaultIdleLimit,
		MaxAuthRetry: DefaultMaxAuthRetry,
		ExitCommand:  DefaultExitCommand,
	}
}

// Params 构造会话所需的全部输入
type Params struct {
	Host       config.Host
	Commands   []string
	Prompt     *prompt.Set
	Classifier *prompt.Classifier
	Renderer   *render.Renderer
	// LocalSerial 本地串口会话，关闭时需显式关闭流
	LocalSerial bool
	Options     Options
}

// Session 单台主机的提示符驱动会话
type Session struct {
	stream     connection.Stream
	params     Params
	classifier *prompt.Classifier
	dispatcher *Dispatcher
	tag        string
}

func New(stream connection.Stream, params Params) (*Session, error) {
	if params.Prompt == nil {
		return nil, errors.New("prompt set is required")
	}
	classifier := params.Classifier
	if classifier == nil {
		c, err := prompt.Compile(params.Prompt)
		if err != nil {
			return nil, err
		}
		classifier = c
	}
	renderer := params.Renderer
	if renderer == nil {
		renderer = render.New(params.Host)
	}
	if params.Options.Timeout <= 0 {
		params.Options.Timeout = DefaultTimeout
	}

	tag := "session"
	if params.Host.Hostname != "" {
		tag = "session:" + params.Host.Hostname
	}
	return &Session{
		stream:     stream,
		params:     params,
		classifier: classifier,
		dispatcher: NewDispatcher(stream, renderer, params.Prompt.EnableCommand, params.Options.ExitCommand, tag),
		tag:        tag,
	}, nil
}

// Run drives the session until the stream ends or the session is force
// closed. The stream itself is not released here; that is the owner's job.
func (s *Session) Run(ctx context.Context) Result {
	started := time.Now()
	st := NewState(s.params.Commands, s.params.LocalSerial, s.params.Options.MaxAuthRetry)
	exp := prompt.NewExpecter(s.stream)
	defer exp.Stop()

	var runErr error
	if st.LocalSerial {
		s.connectSerial(st, exp)
	}

	idle := 0
	for !st.Forced {
		if err := ctx.Err(); err != nil {
			ylog.Warnf(s.tag, "session canceled: %v", err)
			s.setReason(st, ReasonCanceled)
			runErr = err
			break
		}

		m, err := exp.Expect(s.classifier.Regexp(), s.params.Options.Timeout)
		if errors.Is(err, prompt.ErrTimeout) {
			idle++
			ylog.Debugf(s.tag, "no prompt within %v (%d), unmatched output: %q", s.params.Options.Timeout, idle, tail(exp.Buffered()))
			if s.params.Options.IdleLimit > 0 && idle >= s.params.Options.IdleLimit {
				ylog.Errorf(s.tag, "Close: no prompt after %d timeouts", idle)
				s.setReason(st, ReasonTimeout)
				break
			}
			continue
		}
		if errors.Is(err, prompt.ErrStreamEnded) {
			ylog.Debugf(s.tag, "stream ended")
			s.setReason(st, ReasonStreamEnded)
			break
		}
		if err != nil {
			ylog.Errorf(s.tag, "read failed: %v", err)
			s.setReason(st, ReasonError)
			runErr = err
			break
		}
		idle = 0

		text := m[1]
		ylog.Debugf(s.tag, "Read: %s", text)
		if st.Guard.Observe(st.Queue.Len()) {
			ylog.Errorf(s.tag, "Close: Too many auth retries (%d times)", st.Guard.Count())
			s.dispatcher.ForceClose(st, ReasonAuthRetry)
			break
		}
		s.dispatcher.Dispatch(st, s.classifier.Classify(text), text)
	}

	res := Result{
		Hostname:     s.params.Host.Hostname,
		Reason:       st.Reason,
		CommandsSent: st.Sent,
		Remaining:    st.Queue.Len(),
		ExitSent:     st.Closed,
		Err:          runErr,
		StartedAt:    started,
		Duration:     time.Since(started),
	}
	ylog.Infof(s.tag, "session finished: reason=%s sent=%d remaining=%d", res.Reason, res.CommandsSent, res.Remaining)
	return res
}

// connectSerial cu 连接成功后需要发送回车才会出现登录提示
func (s *Session) connectSerial(st *State, exp *prompt.Expecter) {
	if _, err := exp.Expect(serialConnected, serialConnectTimeout); err != nil {
		ylog.Debugf(s.tag, "serial connect banner not seen: %v", err)
		return
	}
	if err := s.dispatcher.WriteRaw(st, "Send enter to connect serial", []byte("\r\n")); err != nil {
		ylog.Errorf(s.tag, "%v", err)
	}
}

func (s *Session) setReason(st *State, reason Reason) {
	if st.Reason == "" {
		st.Reason = reason
	}
}

const logTailSize = 256

// tail 截取未匹配输出的末尾用于日志
func tail(s string) string {
	if len(s) <= logTailSize {
		return s
	}
	return s[len(s)-logTailSize:]
}
