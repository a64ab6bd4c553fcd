package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const receiptsBucket = "receipts"

// DocumentStore defines the persistence operations used by the service
// layer. Every operation is scoped to a user; the user ID is part of the
// storage key, not of the Receipt entity itself.
type DocumentStore interface {
	// SaveReceipt persists a receipt under the given user scope
	SaveReceipt(userID string, r *Receipt) error

	// GetReceipt retrieves a receipt by ID within the user scope
	GetReceipt(userID, id string) (*Receipt, error)

	// QueryByDateRange returns the user's receipts with from <= Date <= to,
	// sorted by date ascending
	QueryByDateRange(userID string, from, to time.Time) ([]*Receipt, error)

	// DeleteReceipt removes a receipt from the user scope
	DeleteReceipt(userID, id string) error

	// Close closes the underlying database
	Close() error
}

// BoltStore implements DocumentStore using BoltDB. Keys are
// "<userID>/<receiptID>" so a prefix cursor covers one user's records.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) a BoltDB file and ensures the bucket exists
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(receiptsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func storeKey(userID, id string) []byte {
	return []byte(userID + "/" + id)
}

// SaveReceipt persists a receipt under the given user scope
func (b *BoltStore) SaveReceipt(userID string, r *Receipt) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptsBucket))
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		return bucket.Put(storeKey(userID, r.ID), data)
	})
}

// GetReceipt retrieves a receipt by ID within the user scope
func (b *BoltStore) GetReceipt(userID, id string) (*Receipt, error) {
	var r *Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptsBucket))
		data := bucket.Get(storeKey(userID, id))
		if data == nil {
			return fmt.Errorf("receipt not found: %s", id)
		}
		return json.Unmarshal(data, &r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// QueryByDateRange returns the user's receipts within [from, to], sorted by
// date ascending
func (b *BoltStore) QueryByDateRange(userID string, from, to time.Time) ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	prefix := []byte(userID + "/")
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(receiptsBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var r Receipt
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshaling receipt: %w", err)
			}
			if r.Date.Before(from) || r.Date.After(to) {
				continue
			}
			receipts = append(receipts, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].Date.Before(receipts[j].Date)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt from the user scope
func (b *BoltStore) DeleteReceipt(userID, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(receiptsBucket))
		key := storeKey(userID, id)
		if bucket.Get(key) == nil {
			return fmt.Errorf("receipt not found: %s", id)
		}
		return bucket.Delete(key)
	})
}

// Close closes the database connection
func (b *BoltStore) Close() error {
	return b.db.Close()
}
