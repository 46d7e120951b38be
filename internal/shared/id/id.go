// Package id generates the identifiers used for request correlation and
// tracing.
//
// Every id is a ULID, optionally prefixed with its kind ("trc_", "spn_",
// "req_"), so ids sort by creation time and are recognizable in logs.
// Kernel thread ids are a separate uint32 namespace owned by the kernel.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	TracePrefix   = "trc"
	SpanPrefix    = "spn"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes. Ids from one generator
// are strictly increasing, even within a millisecond.
type Generator struct {
	mu      sync.Mutex // Protects entropy
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate())
}

// NewTraceID generates a new trace id.
func NewTraceID() string { return Default().GenerateWithPrefix(TracePrefix) }

// NewSpanID generates a new span id.
func NewSpanID() string { return Default().GenerateWithPrefix(SpanPrefix) }

// NewRequestID generates a new request id.
func NewRequestID() string { return Default().GenerateWithPrefix(RequestPrefix) }

// Parse parses a ULID, with or without a kind prefix.
func Parse(s string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	return ulid.Parse(s)
}

// IsValid reports whether s is a (possibly prefixed) ULID.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
