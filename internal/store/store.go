// Package store holds single-document remote stores: one JSON document per
// store, read whole and replaced whole.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the store holds no document yet.
	ErrNotFound = errors.New("document not found")
)

// DocumentStore reads and replaces one JSON document. There is no partial
// update; concurrent writers race and the last write wins.
type DocumentStore interface {
	// Latest decodes the current document into out.
	Latest(ctx context.Context, out any) error
	// Replace overwrites the document with doc.
	Replace(ctx context.Context, doc any) error
}
