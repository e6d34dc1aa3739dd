package litepool

// TaskStatus is the state tag of a Task. Values are ordered, a task only ever
// moves to a higher status.
type TaskStatus int32

const (
	TaskPending TaskStatus = iota
	TaskActive
	TaskFinished
	TaskFailed
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskActive:
		return "active"
	case TaskFinished:
		return "finished"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Done reports whether the task reached a terminal status.
func (s TaskStatus) Done() bool {
	return s == TaskFinished || s == TaskFailed
}
