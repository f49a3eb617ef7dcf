// Package rfstore implements the table store abstraction of spec.md §4.1:
// a typed collection with insert-or-update, lookup-by-filter, and removal,
// backed by a swappable Driver. Neither driver provides cross-operation
// transactions — each primitive is atomic, and the binding engine is
// single-threaded (spec.md §5), so no cross-op locking is required here.
package rfstore

import "context"

// Record is anything a Table can store: a typed entry from pkg/rfentry with
// a storage-assigned id and a string-keyed field encoding.
type Record interface {
	ID() int64
	SetID(id int64)
	ToFields() map[string]string
	FromFields(fields map[string]string) error
}

// StoredRecord is one row as the driver sees it, before decoding into a
// typed Record.
type StoredRecord struct {
	ID     int64
	Fields map[string]string
}

// Driver is the persistence backend contract (spec.md §1 names the real
// backend — in-memory or document-database — an excluded external
// collaborator; this interface is the contract it exposes).
type Driver interface {
	// Scan returns every record in table whose fields match filter exactly
	// on every key present in filter (spec.md §4.1: "a set of exact-match
	// predicates on stored fields").
	Scan(ctx context.Context, table string, filter map[string]string) ([]StoredRecord, error)
	// Insert assigns a new id and stores fields, returning the id.
	Insert(ctx context.Context, table string, fields map[string]string) (int64, error)
	// Update overwrites the fields of an existing record.
	Update(ctx context.Context, table string, id int64, fields map[string]string) error
	// Delete removes a record by id. Deleting a non-existent id is a no-op.
	Delete(ctx context.Context, table string, id int64) error
}

func matches(fields, filter map[string]string) bool {
	for k, v := range filter {
		if fields[k] != v {
			return false
		}
	}
	return true
}
