package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that the backend holds no document yet.
var ErrNotFound = errors.New("storage: document not found")

// Meta is backend-owned metadata describing the last load or save.
type Meta struct {
	Location  string    `json:"location,omitempty"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Backend loads and saves one serialized document.
type Backend interface {
	Load(ctx context.Context) (payload []byte, meta Meta, err error)
	Save(ctx context.Context, payload []byte) (Meta, error)
}

// Locator is implemented by backends that live on the local filesystem.
type Locator interface {
	Location() string
}
