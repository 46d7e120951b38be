package ws

import "github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"

// Frame types.
const (
	TypeSystem = "system"
	TypeStatus = "status"
	TypeEvent  = "event"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeError  = "error"
)

// ClientMessage is a frame sent by the client.
type ClientMessage struct {
	Type string `json:"type"`
}

// SystemFrame carries connection notices and pongs.
type SystemFrame struct {
	Type         string `json:"type"`
	Message      string `json:"message,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// StatusFrame is a status snapshot. When the kernel is not initialized,
// Code holds the kernel result code and Status is omitted.
type StatusFrame struct {
	Type        string         `json:"type"`
	Initialized bool           `json:"initialized"`
	Code        int32          `json:"code"`
	Status      *kernel.Status `json:"status,omitempty"`
	Timestamp   int64          `json:"timestamp"`
}

// EventFrame forwards a kernel event.
type EventFrame struct {
	Type  string       `json:"type"`
	Event kernel.Event `json:"event"`
}

// ErrorFrame reports a bad client message.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func frameType(frame any) string {
	switch f := frame.(type) {
	case SystemFrame:
		return f.Type
	case StatusFrame:
		return f.Type
	case EventFrame:
		return f.Type
	case ErrorFrame:
		return f.Type
	default:
		return "unknown"
	}
}
