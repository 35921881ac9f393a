// Package store holds the persistence boundaries of the editor: where the
// canonical document text lives and where the current graph and selection
// are published. Backends are injected, so the pipeline never knows which
// one it is writing through.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNoDocument is returned by CurrentText when a backend holds no
// document yet.
var ErrNoDocument = errors.New("no document")

// DocumentStore holds the canonical serialized text of one document.
type DocumentStore interface {
	CurrentText(ctx context.Context) ([]byte, error)
	SetText(ctx context.Context, text []byte) error
}

// Revision is one recorded SetText on a history-keeping backend.
type Revision struct {
	ID      string
	Text    []byte
	Created time.Time
}

// History lists prior document revisions, newest first. Backends without
// history simply do not implement it.
type History interface {
	Revisions(ctx context.Context, limit int) ([]Revision, error)
}
