// Package catalog tracks versioned metadata for archived arrays.
//
// Each Commit records one version of a named array. Versions are assigned
// by the writer and committed with a conditional write, so two writers
// racing on the same version see exactly one success and one
// ErrConcurrentModification.
package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a name or version has no entry.
	ErrNotFound = errors.New("catalog: entry not found")

	// ErrConcurrentModification is returned when a version was committed by another writer.
	ErrConcurrentModification = errors.New("catalog: concurrent modification detected")

	// ErrInvalidEntry is returned for entries without a name or version.
	ErrInvalidEntry = errors.New("catalog: invalid entry")
)

// Entry describes one committed version of an archived array.
type Entry struct {
	Name        string
	Version     uint64
	Blob        string
	Dims        []int
	ElementSize int
	Compression string
	ErrorBound  float64
	Bytes       int64
	CreatedAt   time.Time
}

// Elements returns the number of values described by Dims.
func (e Entry) Elements() int {
	if len(e.Dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range e.Dims {
		n *= d
	}
	return n
}

// Catalog stores entries keyed by (name, version).
type Catalog interface {
	// Commit records e. It fails with ErrConcurrentModification if
	// e.Version already exists for e.Name.
	Commit(ctx context.Context, e Entry) error

	// Get returns the entry for name at version, or the latest version when version is 0.
	Get(ctx context.Context, name string, version uint64) (Entry, error)

	// Versions returns all versions of name in ascending order.
	Versions(ctx context.Context, name string) ([]Entry, error)

	// Delete removes every version of name.
	Delete(ctx context.Context, name string) error

	// List returns the latest version of every name with the given prefix, sorted by name.
	List(ctx context.Context, prefix string) ([]Entry, error)
}

// Validate reports whether e can be committed.
func Validate(e Entry) error {
	if e.Name == "" || e.Version == 0 {
		return ErrInvalidEntry
	}
	return nil
}
