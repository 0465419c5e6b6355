// Package utxostore persists the wallet's unspent outputs in bbolt and
// applies the attempted-spend leasing policy when listing spendable records.
package utxostore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/kylefleming/mobilecoin/account"
	"github.com/kylefleming/mobilecoin/payments"
)

var (
	bucketUTXOs      = []byte("utxos")
	bucketSubaddress = []byte("subaddress_utxos")
)

// Store wraps a bbolt database of UnspentOutput records keyed by key image,
// with a secondary index by subaddress.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("utxostore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("utxostore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUTXOs, bucketSubaddress} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("utxostore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// subaddressKey is index (4-byte big-endian) || key image, so a prefix scan
// over the index yields every record of one subaddress.
func subaddressKey(index uint32, ki account.KeyImage) []byte {
	k := make([]byte, 4+len(ki))
	binary.BigEndian.PutUint32(k, index)
	copy(k[4:], ki[:])
	return k
}

func subaddressPrefix(index uint32) []byte {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, index)
	return p
}

func decode(data []byte) (*payments.UnspentOutput, error) {
	u, err := payments.DecodeUnspentOutput(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return u, nil
}

// Put stores a new record. Returns ErrDuplicateKeyImage if the key image exists.
func (s *Store) Put(u *payments.UnspentOutput) error {
	if u == nil {
		return fmt.Errorf("%w: unspent output", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUTXOs)
		if b.Get(u.KeyImage[:]) != nil {
			return fmt.Errorf("%w: %x", ErrDuplicateKeyImage, u.KeyImage[:])
		}
		if err := b.Put(u.KeyImage[:], u.Encode()); err != nil {
			return fmt.Errorf("utxostore: put utxo: %w", err)
		}
		if err := tx.Bucket(bucketSubaddress).Put(subaddressKey(u.SubaddressIndex, u.KeyImage), []byte{}); err != nil {
			return fmt.Errorf("utxostore: put subaddress index: %w", err)
		}
		return nil
	})
}

// Get retrieves a record by key image.
func (s *Store) Get(ki account.KeyImage) (*payments.UnspentOutput, error) {
	var u *payments.UnspentOutput
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUTXOs).Get(ki[:])
		if data == nil {
			return ErrNotFound
		}
		var err error
		u, err = decode(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a record and its index entry, e.g. once a spend is confirmed.
func (s *Store) Delete(ki account.KeyImage) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUTXOs)
		data := b.Get(ki[:])
		if data == nil {
			return ErrNotFound
		}
		u, err := decode(data)
		if err != nil {
			return err
		}
		if err := b.Delete(ki[:]); err != nil {
			return fmt.Errorf("utxostore: delete utxo: %w", err)
		}
		if err := tx.Bucket(bucketSubaddress).Delete(subaddressKey(u.SubaddressIndex, ki)); err != nil {
			return fmt.Errorf("utxostore: delete subaddress index: %w", err)
		}
		return nil
	})
}

// ListBySubaddress returns every record received on subaddress index,
// ordered by key image.
func (s *Store) ListBySubaddress(index uint32) ([]payments.UnspentOutput, error) {
	return s.list(index, func(*payments.UnspentOutput) bool { return true })
}

// ListSpendable returns the records of subaddress index that are eligible
// at currentHeight: never attempted, or whose attempt's tombstone has passed.
func (s *Store) ListSpendable(index uint32, currentHeight uint64) ([]payments.UnspentOutput, error) {
	return s.list(index, func(u *payments.UnspentOutput) bool { return u.Eligible(currentHeight) })
}

func (s *Store) list(index uint32, keep func(*payments.UnspentOutput) bool) ([]payments.UnspentOutput, error) {
	var out []payments.UnspentOutput
	prefix := subaddressPrefix(index)
	err := s.db.View(func(tx *bbolt.Tx) error {
		utxos := tx.Bucket(bucketUTXOs)
		c := tx.Bucket(bucketSubaddress).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			data := utxos.Get(k[len(prefix):])
			if data == nil {
				continue // stale index entry
			}
			u, err := decode(data)
			if err != nil {
				return err
			}
			if keep(u) {
				out = append(out, *u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("utxostore: list subaddress %d: %w", index, err)
	}
	return out, nil
}

// MarkAttempted records that the given outputs were spent by a proposal
// submitted at height and valid until tombstone. Either every record is
// updated or none is.
func (s *Store) MarkAttempted(keyImages []account.KeyImage, height, tombstone uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUTXOs)
		for _, ki := range keyImages {
			data := b.Get(ki[:])
			if data == nil {
				return fmt.Errorf("%w: %x", ErrNotFound, ki[:])
			}
			u, err := decode(data)
			if err != nil {
				return err
			}
			u.AttemptedSpendHeight = height
			u.AttemptedSpendTombstone = tombstone
			if err := b.Put(ki[:], u.Encode()); err != nil {
				return fmt.Errorf("utxostore: update utxo: %w", err)
			}
		}
		return nil
	})
}

// Count returns the number of stored records.
func (s *Store) Count() (uint64, error) {
	var count uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = uint64(tx.Bucket(bucketUTXOs).Stats().KeyN)
		return nil
	})
	return count, err
}
