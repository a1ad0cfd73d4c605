// Package journal records one entry per completed normalization. It is an
// audit trail, not a work queue: nothing is ever re-driven from it.
package journal

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("not implemented")
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Entry describes one finished normalization attempt, success or failure.
type Entry struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Output      string    `json:"output,omitempty"`
	Format      string    `json:"format"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	Attempts    int       `json:"attempts"`
	DurationMS  int64     `json:"durationMs"`
	CompletedAt time.Time `json:"completedAt"`
}

type Backend interface {
	Append(entry Entry) error
	Close() error
}

// NopBackend discards entries. Used when no journal DSN is configured.
type NopBackend struct{}

func (NopBackend) Append(Entry) error { return nil }
func (NopBackend) Close() error       { return nil }

// MemoryBackend keeps entries in memory.
type MemoryBackend struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Append(entry Entry) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return nil
}

func (b *MemoryBackend) Entries() []Entry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...)
}

func (b *MemoryBackend) Close() error { return nil }
