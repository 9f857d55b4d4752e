package settings

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var settingsBucket = []byte("settings")

// Bolt is a Store backed by a single bbolt file.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (creating if needed) the bbolt database at path.
func NewBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, errors.New("settings: bolt path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create settings bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(settingsBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid for the lifetime of the transaction.
		val = append([]byte(nil), v...)
		return nil
	})
	return val, err
}

func (b *Bolt) Set(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Put([]byte(key), value)
	})
}

func (b *Bolt) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Delete([]byte(key))
	})
}

func (b *Bolt) List(_ context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		err := b.db.View(func(tx *bbolt.Tx) error {
			c := tx.Bucket(settingsBucket).Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				e := Entry{
					Key:   string(k),
					Value: append([]byte(nil), v...),
				}
				if !yield(e, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Entry{}, err)
		}
	}
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
