package chainstore

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	bolt "go.etcd.io/bbolt"

	"rotorchain/internal/blockengine"
	"rotorchain/internal/core"
	"rotorchain/internal/errs"
)

// blockKeyFormat mirrors §4.3/§6's key layout: bloco_{number:010} for a
// block, altura_atual for the scalar current-height cell. "bloco" and
// "altura_atual" are the literal key names the external interface contract
// specifies — not translated — so any external tooling built against that
// contract can read this store directly.
const blockKeyFormat = "bloco_%010d"

const heightKey = "altura_atual"

var (
	bucketBlocks = []byte("blocks")
	bucketMeta   = []byte("meta")
)

// Persistence is the optional bbolt-backed key-value layer behind
// ChainStore. A ChainStore with a nil Persistence runs in-memory only.
type Persistence struct {
	db *bolt.DB
}

// OpenPersistence opens (creating if absent) a bbolt database at path and
// ensures its buckets exist.
func OpenPersistence(path string) (*Persistence, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open bbolt: %v", errs.ErrPersistence, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBlocks); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create buckets: %v", errs.ErrPersistence, err)
	}
	return &Persistence{db: db}, nil
}

// Close closes the underlying bbolt database.
func (p *Persistence) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// PutBlock encodes b with blockengine.Encode and stores it under
// bloco_{number:010}.
func (p *Persistence) PutBlock(b *core.Block) error {
	encoded, err := blockengine.Encode(b)
	if err != nil {
		return fmt.Errorf("%w: encode block %d: %v", errs.ErrPersistence, b.Header.Number, err)
	}
	key := []byte(fmt.Sprintf(blockKeyFormat, b.Header.Number))
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlocks).Put(key, encoded)
	})
}

// GetBlock decodes and returns the block stored at number, if present.
func (p *Persistence) GetBlock(number uint64) (*core.Block, bool, error) {
	var raw []byte
	key := []byte(fmt.Sprintf(blockKeyFormat, number))
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlocks).Get(key)
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if raw == nil {
		return nil, false, nil
	}
	b, err := blockengine.Decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%w: decode block %d: %v", errs.ErrDecode, number, err)
	}
	return b, true, nil
}

// SetHeight persists the current chain height — the tip's block number,
// one less than Store.Height's block count — as a little-endian u64 under
// altura_atual.
func (p *Persistence) SetHeight(height uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], height)
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(heightKey), buf[:])
	})
}

// Height returns the persisted current height, or (0, false) if unset.
func (p *Persistence) Height() (uint64, bool, error) {
	var height uint64
	var found bool
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get([]byte(heightKey))
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return errs.ErrDecode
		}
		height = binary.LittleEndian.Uint64(v)
		found = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return height, found, nil
}

// AllBlockNumbers scans the bloco_ prefix and returns every stored block
// number, in the order bbolt's cursor yields them (lexicographic on the
// zero-padded key, i.e. already numeric order).
func (p *Persistence) AllBlockNumbers() ([]uint64, error) {
	var numbers []uint64
	err := p.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketBlocks).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			digits := strings.TrimPrefix(string(k), "bloco_")
			n, err := strconv.ParseUint(digits, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: malformed key %q", errs.ErrDecode, string(k))
			}
			numbers = append(numbers, n)
		}
		return nil
	})
	return numbers, err
}
