package kernel

import "time"

// EventType names an observable kernel transition.
type EventType string

const (
	EventInitialized     EventType = "kernel.initialized"
	EventShutdown        EventType = "kernel.shutdown"
	EventThreadCreated   EventType = "thread.created"
	EventThreadDestroyed EventType = "thread.destroyed"
	EventMessageSent     EventType = "ipc.sent"
)

// Event describes a completed kernel operation. Events are observational:
// nothing in the kernel consumes them.
//
// Seq is assigned while the operation holds the manager lock and increases
// in commit order. Events are published after the lock is released, so
// concurrent operations may be delivered out of order; consumers that care
// should order by Seq.
type Event struct {
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	ThreadID  ThreadID  `json:"thread_id,omitempty"`
	Name      Name      `json:"name,omitempty"`
	Target    ThreadID  `json:"target,omitempty"`
	MsgID     uint32    `json:"msg_id,omitempty"`
	Size      int       `json:"size,omitempty"`
	Cleared   int       `json:"cleared,omitempty"`
	UptimeMs  uint64    `json:"uptime_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher receives kernel events after the operation has committed.
// Calls may arrive concurrently and out of Seq order.
// Publish errors are logged and never change an operation's result.
type Publisher interface {
	Publish(event Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) error { return nil }
