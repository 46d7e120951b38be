package http

import "github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"

// MessageDTO is the JSON form of kernel.Message. DataSize is informational:
// the payload length is always len(Data) after bounding.
type MessageDTO struct {
	ID        uint32 `json:"id"`
	Timestamp uint64 `json:"timestamp"`
	Data      string `json:"data"`
	DataSize  int    `json:"data_size"`
}

// NewMessageDTO converts a kernel message.
func NewMessageDTO(m kernel.Message) MessageDTO {
	return MessageDTO{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Data:      string(m.Payload),
		DataSize:  m.Size(),
	}
}

// Message converts back, bounding the payload.
func (d MessageDTO) Message() kernel.Message {
	return kernel.NewMessage(d.ID, d.Timestamp, []byte(d.Data))
}

// CreateThreadRequest is the body of POST /threads.
type CreateThreadRequest struct {
	Name string `json:"name"`
}

// SendRequest is the body of POST /ipc/send. A missing message is an
// invalid parameter.
type SendRequest struct {
	Target  uint32      `json:"target"`
	Message *MessageDTO `json:"message" binding:"required"`
}

// DemoCallRequest is the body of POST /kernel/demo. Input must be present
// but may be empty; Capacity defaults to DefaultCallCapacity.
type DemoCallRequest struct {
	Input    *string `json:"input" binding:"required"`
	Capacity *int    `json:"capacity,omitempty"`
}

// ErrorResponse is the body of every failed kernel call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int32  `json:"code"`
	Op      string `json:"op,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
