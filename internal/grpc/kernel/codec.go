package kernel

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	core "github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// Wire field names.
const (
	fieldVersion   = "version"
	fieldStatus    = "status"
	fieldThreadID  = "thread_id"
	fieldName      = "name"
	fieldCount     = "count"
	fieldThreads   = "threads"
	fieldTarget    = "target"
	fieldMessage   = "message"
	fieldSender    = "sender"
	fieldInput     = "input"
	fieldCapacity  = "capacity"
	fieldOutput    = "output"
	fieldID        = "id"
	fieldTimestamp = "timestamp"
	fieldData      = "data"
	fieldDataSize  = "data_size"
)

func statusToMap(st core.Status) map[string]any {
	return map[string]any{
		"initialized": st.Initialized,
		"version": map[string]any{
			"major": st.Version.Major,
			"minor": st.Version.Minor,
			"patch": st.Version.Patch,
		},
		"uptime_ms":      st.UptimeMs,
		"active_threads": st.ActiveThreads,
	}
}

func statusFromStruct(s *structpb.Struct) core.Status {
	v := s.GetFields()["version"].GetStructValue()
	return core.Status{
		Initialized: boolField(s, "initialized"),
		Version: core.Version{
			Major: uint32(numberField(v, "major")),
			Minor: uint32(numberField(v, "minor")),
			Patch: uint32(numberField(v, "patch")),
		},
		UptimeMs:      uint64(numberField(s, "uptime_ms")),
		ActiveThreads: uint32(numberField(s, "active_threads")),
	}
}

func threadToMap(t core.Thread) map[string]any {
	return map[string]any{
		fieldID:      uint32(t.ID),
		fieldName:    string(t.Name),
		"active":     t.Active,
		"created_at": t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func threadFromStruct(s *structpb.Struct) core.Thread {
	created, _ := time.Parse(time.RFC3339Nano, stringField(s, "created_at"))
	return core.Thread{
		ID:        core.ThreadID(numberField(s, fieldID)),
		Name:      core.Name(stringField(s, fieldName)),
		Active:    boolField(s, "active"),
		CreatedAt: created,
	}
}

// Payloads are arbitrary bytes, so they travel base64 encoded.
func messageToMap(m core.Message) map[string]any {
	return map[string]any{
		fieldID:        m.ID,
		fieldTimestamp: m.Timestamp,
		fieldData:      base64.StdEncoding.EncodeToString(m.Payload),
		fieldDataSize:  m.Size(),
	}
}

func messageFromStruct(s *structpb.Struct) (core.Message, error) {
	encoded, _, err := stringValue(s, fieldData)
	if err != nil {
		return core.Message{}, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return core.Message{}, fmt.Errorf("invalid message data: %w", err)
	}
	id, _, err := uint32Field(s, fieldID)
	if err != nil {
		return core.Message{}, err
	}
	ts, _, err := uint64Field(s, fieldTimestamp)
	if err != nil {
		return core.Message{}, err
	}
	return core.NewMessage(id, ts, data), nil
}

func field(s *structpb.Struct, name string) (*structpb.Value, bool) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// uint32Field reads an optional whole number in [0, MaxUint32]. ok is
// false when the field is absent or null.
func uint32Field(s *structpb.Struct, name string) (n uint32, ok bool, err error) {
	v, ok := field(s, name)
	if !ok {
		return 0, false, nil
	}
	f, err := wholeNumber(v, name, 1<<32)
	return uint32(f), true, err
}

// uint64Field is uint32Field for [0, MaxUint64].
func uint64Field(s *structpb.Struct, name string) (n uint64, ok bool, err error) {
	v, ok := field(s, name)
	if !ok {
		return 0, false, nil
	}
	f, err := wholeNumber(v, name, 1<<64)
	return uint64(f), true, err
}

// wholeNumber accepts finite, non-negative integral numbers below limit.
func wholeNumber(v *structpb.Value, name string, limit float64) (float64, error) {
	nv, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	f := nv.NumberValue
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, fmt.Errorf("%s must be finite", name)
	case f != math.Trunc(f):
		return 0, fmt.Errorf("%s must be a whole number, got %v", name, f)
	case f < 0 || f >= limit:
		return 0, fmt.Errorf("%s out of range: %v", name, f)
	}
	return f, nil
}

// stringValue reads an optional string field, rejecting other kinds.
func stringValue(s *structpb.Struct, name string) (str string, ok bool, err error) {
	v, ok := field(s, name)
	if !ok {
		return "", false, nil
	}
	sv, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", true, fmt.Errorf("%s must be a string", name)
	}
	return sv.StringValue, true, nil
}

// structValue reads an optional object field, rejecting other kinds.
func structValue(s *structpb.Struct, name string) (st *structpb.Struct, ok bool, err error) {
	v, ok := field(s, name)
	if !ok {
		return nil, false, nil
	}
	sv, isStruct := v.GetKind().(*structpb.Value_StructValue)
	if !isStruct {
		return nil, true, fmt.Errorf("%s must be an object", name)
	}
	return sv.StructValue, true, nil
}

func numberField(s *structpb.Struct, name string) float64 {
	return s.GetFields()[name].GetNumberValue()
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func boolField(s *structpb.Struct, name string) bool {
	return s.GetFields()[name].GetBoolValue()
}
