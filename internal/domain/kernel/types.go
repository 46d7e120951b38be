package kernel

import (
	"fmt"
	"time"
)

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// ThreadID identifies a thread record. Ids are assigned by the manager,
// start at 1 and are never reused for the lifetime of the Manager.
type ThreadID uint32

// Version is the kernel ABI version triple.
type Version struct {
	Major uint32 `json:"major"`
	Minor uint32 `json:"minor"`
	Patch uint32 `json:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// CurrentVersion returns the fixed version of this kernel.
func CurrentVersion() Version {
	return Version{Major: VersionMajor, Minor: VersionMinor, Patch: VersionPatch}
}

// VersionString reports the version as text. It does not depend on any
// Manager and is valid before Init and after Shutdown.
func VersionString() string {
	return CurrentVersion().String()
}

// Status is a point-in-time snapshot of an initialized kernel.
type Status struct {
	Initialized   bool    `json:"initialized"`
	Version       Version `json:"version"`
	UptimeMs      uint64  `json:"uptime_ms"`
	ActiveThreads uint32  `json:"active_threads"`
}

// Thread is the manager's bookkeeping entry for a thread descriptor. It does
// not correspond to a real execution context.
type Thread struct {
	ID        ThreadID  `json:"id"`
	Name      Name      `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a single IPC message. Nothing queues it: Send observes it and
// Receive synthesizes its own.
type Message struct {
	ID        uint32
	Timestamp uint64
	Payload   Payload
}

// NewMessage builds a message, truncating data to MaxPayloadLen.
func NewMessage(id uint32, timestamp uint64, data []byte) Message {
	return Message{ID: id, Timestamp: timestamp, Payload: NewPayload(data)}
}

// Size is the explicit payload length.
func (m Message) Size() int {
	return len(m.Payload)
}
