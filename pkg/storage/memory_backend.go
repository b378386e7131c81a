package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend is a minimal in-memory Backend intended for tests and
// examples. It copies payloads on the way in and out.
type MemoryBackend struct {
	mu      sync.RWMutex
	payload []byte
	present bool
	saves   int
	err     error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// NewMemoryBackendWith returns a backend already holding payload.
func NewMemoryBackendWith(payload []byte) *MemoryBackend {
	return &MemoryBackend{payload: clonePayload(payload), present: true}
}

// FailWith makes every subsequent Load and Save return err. A nil err
// restores normal behaviour.
func (b *MemoryBackend) FailWith(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *MemoryBackend) Load(_ context.Context) ([]byte, Meta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.err != nil {
		return nil, Meta{}, b.err
	}
	if !b.present {
		return nil, Meta{}, ErrNotFound
	}
	return clonePayload(b.payload), Meta{Location: "memory", Size: len(b.payload)}, nil
}

func (b *MemoryBackend) Save(_ context.Context, payload []byte) (Meta, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return Meta{}, b.err
	}
	b.payload = clonePayload(payload)
	b.present = true
	b.saves++
	return Meta{Location: "memory", Size: len(payload), UpdatedAt: time.Now()}, nil
}

// Bytes returns a copy of the stored payload and whether one exists.
func (b *MemoryBackend) Bytes() ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return clonePayload(b.payload), b.present
}

// Saves returns how many times Save succeeded.
func (b *MemoryBackend) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}

func clonePayload(payload []byte) []byte {
	if payload == nil {
		return nil
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out
}
