// Package storage provides the record storage abstraction backing the
// reference token store: namespaced JSON records with Put/Get/Delete/List.
package storage

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for namespaced record storage. Values
// are opaque byte slices (JSON-encoded by callers); implementations must
// be safe for concurrent use.
type Repository interface {
	Put(namespace, recordType, recordID string, value []byte) error
	Get(namespace, recordType, recordID string) ([]byte, error)
	Delete(namespace, recordType, recordID string) error
	List(namespace, recordType string) ([]string, error)
}
