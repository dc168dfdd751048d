// Package id provides centralized ID generation for the kernel.
//
// IPC messages and HTTP requests carry prefixed ULIDs, which sort by creation
// time and keep hub history readable in logs. Observer connections carry
// prefixed random UUIDs since they are never ordered.
//
//   - ipc_<ULID>: IPC hub messages
//   - req_<ULID>: HTTP request traces
//   - obs_<UUID>: push-channel observers
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// MessageID identifies an IPC message
type MessageID string

// RequestID identifies an HTTP request
type RequestID string

// ObserverID identifies a connected observer
type ObserverID string

const (
	MessagePrefix  = "ipc"
	RequestPrefix  = "req"
	ObserverPrefix = "obs"
)

// Generator generates monotonic ULIDs with optional prefixes
type Generator struct {
	entropyMu sync.Mutex // Protects entropy reader
	entropy   io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator whose IDs strictly increase within
// the same millisecond.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewMessageID generates a new IPC message ID
func NewMessageID() MessageID {
	return MessageID(Default().GenerateWithPrefix(MessagePrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewObserverID generates a new observer ID
func NewObserverID() ObserverID {
	return ObserverID(fmt.Sprintf("%s_%s", ObserverPrefix, uuid.NewString()))
}

func (id MessageID) String() string  { return string(id) }
func (id RequestID) String() string  { return string(id) }
func (id ObserverID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
