package session

// DefaultMaxAuthRetry 队列长度不变的连续提示符次数上限
const DefaultMaxAuthRetry = 10

// AuthGuard 检测会话停滞：设备反复要求认证却从不消耗命令。
// 每次识别到提示符、分发之前调用 Observe。
type AuthGuard struct {
	ceiling int
	count   int
	lastLen int
}

func NewAuthGuard(ceiling int) *AuthGuard {
	if ceiling <= 0 {
		ceiling = DefaultMaxAuthRetry
	}
	return &AuthGuard{ceiling: ceiling, lastLen: -1}
}

// Observe records the queue length seen at this prompt and reports whether
// the retry ceiling has been exceeded.
func (g *AuthGuard) Observe(queueLen int) bool {
	if queueLen == g.lastLen {
		g.count++
	} else {
		g.count = 0
		g.lastLen = queueLen
	}
	return g.count > g.ceiling
}

func (g *AuthGuard) Count() int {
	return g.count
}
