// Package store persists JSON documents grouped in named collections.
//
// Every stored document carries an "_id" plus "created_at" and "updated_at"
// stamps (RFC 3339 strings). Queries support equality and the $in, $nin and
// $ne operators; projections follow the include/exclude convention of
// document databases.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Collection names a group of documents.
type Collection string

// CollectionTask holds task documents.
const CollectionTask Collection = "task"

// Reserved document fields.
const (
	FieldID        = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// DocumentStore persists documents.
// Implementations must be safe for concurrent use.
type DocumentStore interface {
	// InsertOne stores doc, assigning a UUID when it has no _id.
	InsertOne(ctx context.Context, c Collection, doc Document) (string, error)

	// InsertMany is InsertOne for several documents, in one transaction.
	InsertMany(ctx context.Context, c Collection, docs []Document) ([]string, error)

	// UpdateOne merges doc's fields into the stored document with the same
	// _id. Returns ErrNotFound if there is none.
	UpdateOne(ctx context.Context, c Collection, doc Document) (string, error)

	// UpdateMany is UpdateOne for several documents, in one transaction.
	UpdateMany(ctx context.Context, c Collection, docs []Document) ([]string, error)

	// InsertOrUpdateOne updates the document with doc's _id, inserting it
	// when missing. created_at is only set on insert.
	InsertOrUpdateOne(ctx context.Context, c Collection, doc Document) (string, error)

	// InsertOrUpdateMany is InsertOrUpdateOne for several documents.
	InsertOrUpdateMany(ctx context.Context, c Collection, docs []Document) ([]string, error)

	// FindOne returns the document with the given id, or nil if it doesn't
	// exist.
	FindOne(ctx context.Context, c Collection, id string, projection Projection) (Document, error)

	// Find returns matching documents ordered by creation. Returns an empty
	// slice (not error) when nothing matches.
	Find(ctx context.Context, c Collection, query Query, projection Projection) ([]Document, error)

	// Close releases the underlying database.
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrStore matches every error returned by a DocumentStore.
	ErrStore = errors.New("store error")

	// ErrNotFound indicates an update target doesn't exist.
	ErrNotFound = errors.New("document not found")

	// ErrMissingID indicates an update without an _id.
	ErrMissingID = errors.New("document has no _id")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("document store closed")
)

// StoreError wraps errors from store operations.
type StoreError struct {
	// Op is the operation that failed ("insert_one", "find", ...).
	Op string
	// Collection is the collection the operation targeted.
	Collection Collection
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s on %s: %v", e.Op, e.Collection, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes every StoreError match ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
