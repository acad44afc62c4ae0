// Package store persists the precomputed canonical index to hand value tables.
//
// Each hand size has its own files in the store directory:
//
//	pokervals{n}.sqlite         resumable read-write table plus progress counter
//	pokervals{n}.chd            frozen constant database for read-only lookups
//	pokervals{n}.manifest.json  completion manifest
package store

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/lox/pokervals/poker"
)

// ErrNotFound is returned when a store file does not exist.
var ErrNotFound = errors.New("store not found")

// Format selects the backing store used for lookups.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatCHD    Format = "chd"
	FormatLive   Format = "live"
)

// Valid reports whether f names a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatSQLite, FormatCHD, FormatLive:
		return true
	}
	return false
}

// Reader looks up hand values by canonical index. A missing index is
// reported as ok=false with a nil error.
type Reader interface {
	Lookup(ix poker.Index) (v poker.HandValue, ok bool, err error)
	Close() error
}

// Entry is one index to value row.
type Entry struct {
	Index poker.Index
	Value poker.HandValue
}

// SQLitePath returns the read-write store path for hand size n.
func SQLitePath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("pokervals%d.sqlite", n))
}

// CHDPath returns the frozen store path for hand size n.
func CHDPath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("pokervals%d.chd", n))
}

// ManifestPath returns the completion manifest path for hand size n.
func ManifestPath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("pokervals%d.manifest.json", n))
}

// Open opens a read-only store of the given format for hand size n.
func Open(format Format, dir string, n int, chdCache int) (Reader, error) {
	switch format {
	case FormatSQLite:
		s, err := OpenSQLite(SQLitePath(dir, n), ReadOnly)
		if err != nil {
			return nil, err
		}
		return s, nil
	case FormatCHD:
		c, err := OpenCHD(CHDPath(dir, n), chdCache)
		if err != nil {
			return nil, err
		}
		return c, nil
	case FormatLive:
		return Live{}, nil
	}
	return nil, fmt.Errorf("unknown store format %q", format)
}

// Live computes values directly from the index instead of reading a file.
// Every index of a valid hand is present.
type Live struct{}

// Lookup decodes the index and evaluates the best five-card subset.
func (Live) Lookup(ix poker.Index) (poker.HandValue, bool, error) {
	v, err := poker.BestOf(ix.Cards())
	if err != nil {
		return 0, false, fmt.Errorf("evaluate index %s: %w", ix, err)
	}
	return v, true, nil
}

// Close is a no-op.
func (Live) Close() error { return nil }
