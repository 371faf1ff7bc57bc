package aggregator

import (
	"strings"

	"github.com/charlesren/ylog"

	"github.com/charlesren/cli_thrower/session"
)

// LogHandler 日志处理器
type LogHandler struct{}

func (h *LogHandler) HandleResult(results []session.Result) error {
	for _, r := range results {
		if r.Success() {
			ylog.Infof("result", "✓ %s %s: %d commands sent (duration: %v)",
				r.Hostname, r.Reason, r.CommandsSent, r.Duration)
		} else {
			ylog.Warnf("result", "✗ %s %s: %d sent, %d not sent, err: %v (duration: %v)",
				r.Hostname, r.Reason, r.CommandsSent, r.Remaining, r.Err, r.Duration)
		}
	}

	summary := Summarize(results)
	for _, reason := range summary.Reasons() {
		ylog.Infof("result", "%s: %s", reason, strings.Join(summary.Hosts(reason), ","))
	}
	return nil
}
