package aggregator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/charlesren/cli_thrower/session"
)

type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) HandleResult(results []session.Result) error {
	args := m.Called(results)
	return args.Error(0)
}

func completed(host string, sent int) session.Result {
	return session.Result{Hostname: host, Reason: session.ReasonCompleted, CommandsSent: sent}
}

func TestAggregator(t *testing.T) {
	t.Run("should flush when buffer is full", func(t *testing.T) {
		h := &MockHandler{}
		h.On("HandleResult", mock.MatchedBy(func(rs []session.Result) bool { return len(rs) == 2 })).Return(nil).Once()

		a := New(2)
		a.AddHandler(h)
		a.Submit(completed("r1", 1))
		h.AssertNotCalled(t, "HandleResult", mock.Anything)
		a.Submit(completed("r2", 1))

		h.AssertExpectations(t)
	})

	t.Run("should flush remaining results", func(t *testing.T) {
		h := &MockHandler{}
		h.On("HandleResult", []session.Result{completed("r1", 3)}).Return(nil).Once()

		a := New(10)
		a.AddHandler(h)
		a.Submit(completed("r1", 3))
		a.Flush()
		a.Flush()

		h.AssertExpectations(t)
		assert.False(t, a.GetStats().LastFlush.IsZero())
	})

	t.Run("should keep going when a handler fails", func(t *testing.T) {
		bad := &MockHandler{}
		bad.On("HandleResult", mock.Anything).Return(errors.New("down"))
		good := &MockHandler{}
		good.On("HandleResult", mock.Anything).Return(nil)

		a := New(1)
		a.AddHandler(bad)
		a.AddHandler(good)
		a.Submit(completed("r1", 1))

		bad.AssertNumberOfCalls(t, "HandleResult", 1)
		good.AssertNumberOfCalls(t, "HandleResult", 1)
	})

	t.Run("should count success and failure", func(t *testing.T) {
		a := New(10)
		a.Submit(completed("r1", 1))
		a.Submit(session.Result{Hostname: "r2", Reason: session.ReasonAuthRetry})
		a.Submit(session.Result{Hostname: "r3", Reason: session.ReasonTimeout, Remaining: 2})

		stats := a.GetStats()
		assert.Equal(t, int64(3), stats.TotalResults)
		assert.Equal(t, int64(1), stats.SuccessResults)
		assert.Equal(t, int64(2), stats.FailedResults)
	})
}

func TestSummarize(t *testing.T) {
	s := Summarize([]session.Result{
		completed("r1", 1),
		{Hostname: "r2", Reason: session.ReasonAuthRetry},
		completed("r3", 2),
	})

	assert.Equal(t, []session.Reason{session.ReasonAuthRetry, session.ReasonCompleted}, s.Reasons())
	assert.Equal(t, []string{"r1", "r3"}, s.Hosts(session.ReasonCompleted))
	assert.Empty(t, s.Hosts(session.ReasonTimeout))
}

func TestLogHandler(t *testing.T) {
	h := &LogHandler{}
	assert.NoError(t, h.HandleResult([]session.Result{
		completed("r1", 1),
		{Hostname: "r2", Reason: session.ReasonError, Err: errors.New("boom")},
	}))
}

func TestBuildMetrics(t *testing.T) {
	started := time.Unix(1700000000, 0)
	results := []session.Result{
		{Hostname: "r1", Reason: session.ReasonCompleted, CommandsSent: 4, StartedAt: started, Duration: 2 * time.Second},
		{Hostname: "", Reason: session.ReasonSkipped},
		{Hostname: "r2", Reason: session.ReasonEscalationFailed, StartedAt: started},
	}

	metrics := buildMetrics(results)

	if assert.Len(t, metrics, 4) {
		assert.Equal(t, "r1", metrics[0].Host)
		assert.Equal(t, KeySessionStatus, metrics[0].Key)
		assert.Equal(t, "completed", metrics[0].Value)
		assert.Equal(t, int64(1700000002), metrics[0].Clock)
		assert.False(t, metrics[0].Active)
		assert.Equal(t, KeySessionSent, metrics[1].Key)
		assert.Equal(t, "4", metrics[1].Value)
		assert.Equal(t, "escalation_failed", metrics[2].Value)
		assert.Equal(t, "0", metrics[3].Value)
	}
}

func TestZabbixSenderConfig_SetDefaults(t *testing.T) {
	c := ZabbixSenderConfig{ProxyIP: "127.0.0.1"}
	c.SetDefaults()
	assert.Equal(t, "10051", c.ProxyPort)
	assert.Equal(t, 5*time.Second, c.ConnectionTimeout)
	assert.Equal(t, 15*time.Second, c.ReadTimeout)
	assert.Equal(t, 1, c.PoolSize)

	_, err := NewZabbixHandler(ZabbixSenderConfig{})
	assert.Error(t, err)
}
