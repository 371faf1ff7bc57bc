package session

// CommandQueue 单台主机的待执行命令（模板），只从队首取出。
type CommandQueue struct {
	items []string
}

// NewCommandQueue copies commands; the caller's slice is never consumed.
func NewCommandQueue(commands []string) *CommandQueue {
	items := make([]string, len(commands))
	copy(items, commands)
	return &CommandQueue{items: items}
}

func (q *CommandQueue) Len() int {
	return len(q.items)
}

func (q *CommandQueue) Empty() bool {
	return len(q.items) == 0
}

// Pop removes and returns the head of the queue.
func (q *CommandQueue) Pop() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

func (q *CommandQueue) Clear() {
	q.items = nil
}
