package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/lox/pokervals/poker"
	"github.com/opencoff/go-chd"
)

// DefaultLoad is the CHD hash table load factor used when freezing.
const DefaultLoad = 0.9

// CHD is a frozen constant database keyed by poker.Index.Key.
type CHD struct {
	mu sync.Mutex
	db *chd.DBReader
}

// OpenCHD opens a frozen store. cacheSize is the number of decoded values
// the reader keeps in memory.
func OpenCHD(path string, cacheSize int) (*CHD, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	db, err := chd.NewDBReader(path, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &CHD{db: db}, nil
}

// Lookup returns the frozen value for ix.
func (c *CHD) Lookup(ix poker.Index) (poker.HandValue, bool, error) {
	c.mu.Lock()
	val, ok := c.db.Lookup(ix.Key())
	c.mu.Unlock()
	if !ok {
		return 0, false, nil
	}
	if len(val) != 4 {
		return 0, false, fmt.Errorf("index %s: corrupt value of %d bytes", ix, len(val))
	}
	return poker.HandValue(binary.BigEndian.Uint32(val)), true, nil
}

// Close releases the reader.
func (c *CHD) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	c.db.Close()
	c.db = nil
	return nil
}

// Freeze writes every entry of src into a new constant database at dst and
// returns the number of entries written.
func Freeze(ctx context.Context, src *SQLite, dst string) (int, error) {
	w, err := chd.NewDBWriter(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	n := 0
	err = src.Each(ctx, func(e Entry) error {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(e.Value))
		if err := w.Add(e.Index.Key(), buf[:]); err != nil {
			return fmt.Errorf("add %s: %w", e.Index, err)
		}
		n++
		return nil
	})
	if err != nil {
		w.Abort()
		return 0, err
	}
	if err := w.Freeze(DefaultLoad); err != nil {
		return 0, fmt.Errorf("freeze %s: %w", dst, err)
	}
	return n, nil
}
