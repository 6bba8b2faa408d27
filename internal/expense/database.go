package expense

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const entriesBucket = "entries"

// DB is the record side of the persistence boundary.
type DB interface {
	// SaveEntry writes an expense entry.
	SaveEntry(entry *Entry) error

	// GetEntry retrieves an entry by ID.
	GetEntry(id string) (*Entry, error)

	// ListEntries returns all entries, newest first.
	ListEntries() ([]*Entry, error)

	// DeleteEntry removes an entry.
	DeleteEntry(id string) error

	// Close closes the database.
	Close() error
}

// BoltDB implements DB using BoltDB.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens (or creates) the database file.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(entriesBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveEntry writes an entry.
func (b *BoltDB) SaveEntry(entry *Entry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return bucket.Put([]byte(entry.ID), data)
	})
}

// GetEntry retrieves an entry by ID.
func (b *BoltDB) GetEntry(id string) (*Entry, error) {
	var entry *Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("entry not found: %s", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns all entries, most recently created first.
func (b *BoltDB) ListEntries() ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// DeleteEntry removes an entry.
func (b *BoltDB) DeleteEntry(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entriesBucket))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
