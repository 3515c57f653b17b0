package assets

import (
	"context"
	"io"
)

// ObjectStore is the minimal surface the coordinator needs from a blob
// backend. Implementations live under provider/.
type ObjectStore interface {
	// Put writes payload under name and returns a resolvable reference.
	Put(ctx context.Context, payload io.Reader, size int64, name, contentType string) (Reference, error)

	// Delete removes the object. Deleting an object that is already gone
	// must succeed: cleanup paths rely on delete being idempotent.
	Delete(ctx context.Context, externalID string) error
}

// Logger is the leveled printf logger the coordinator reports through.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}
