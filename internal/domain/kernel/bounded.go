package kernel

import "unicode/utf8"

const (
	// MaxNameLen is the usable capacity of a thread name in bytes.
	MaxNameLen = 63
	// MaxPayloadLen is the usable capacity of a message payload in bytes.
	MaxPayloadLen = 255

	DefaultThreadName = "unnamed"
)

// Name is bounded thread name text.
//
// Construction through NewName is lossy: input longer than MaxNameLen is cut
// at the last rune boundary that fits, and empty input becomes
// DefaultThreadName.
type Name string

// NewName bounds s to MaxNameLen bytes.
func NewName(s string) Name {
	if s == "" {
		return DefaultThreadName
	}
	return Name(truncateUTF8(s, MaxNameLen))
}

func (n Name) String() string { return string(n) }

// Payload is a bounded message body. NewPayload copies its input and drops
// every byte past MaxPayloadLen.
type Payload []byte

// NewPayload bounds b to MaxPayloadLen bytes.
func NewPayload(b []byte) Payload {
	if len(b) > MaxPayloadLen {
		b = b[:MaxPayloadLen]
	}
	p := make(Payload, len(b))
	copy(p, b)
	return p
}

func (p Payload) String() string { return string(p) }

// truncateUTF8 shortens s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
