package aggregator

import (
	"sort"

	"github.com/charlesren/cli_thrower/session"
)

// ReasonSummary 按结束原因归并主机名
type ReasonSummary struct {
	results map[session.Reason][]string
}

func Summarize(results []session.Result) *ReasonSummary {
	s := &ReasonSummary{results: make(map[session.Reason][]string)}
	for _, r := range results {
		s.results[r.Reason] = append(s.results[r.Reason], r.Hostname)
	}
	return s
}

// Reasons returns the reasons seen, sorted.
func (s *ReasonSummary) Reasons() []session.Reason {
	reasons := make([]session.Reason, 0, len(s.results))
	for reason := range s.results {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

func (s *ReasonSummary) Hosts(reason session.Reason) []string {
	return s.results[reason]
}
