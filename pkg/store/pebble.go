package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"hoaportal/pkg/logger"
)

var db *pebble.DB

// seq reduces key collisions when multiple records share the same
// nanosecond timestamp.
var seq uint64

// ErrNotFound is returned when a lookup key has no value.
var ErrNotFound = pebble.ErrNotFound

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_store", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("store_open_failed", "path", path, "error", err)
		return err
	}
	logger.Info("store_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("store_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool { return db != nil }

func notOpen() error { return fmt.Errorf("store not opened; call store.Open first") }

// tsKey renders a sortable timestamp suffix: <unix_nano_padded>-<seq>.
func tsKey(ts int64) string {
	s := atomic.AddUint64(&seq, 1)
	return fmt.Sprintf("%020d-%06d", ts, s)
}

func setJSON(key string, v interface{}) error {
	if db == nil {
		return notOpen()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := db.Set([]byte(key), b, pebble.Sync); err != nil {
		logger.Error("store_set_failed", "key", key, "error", err)
		return err
	}
	return nil
}

func getJSON(key string, v interface{}) error {
	if db == nil {
		return notOpen()
	}
	raw, closer, err := db.Get([]byte(key))
	if err != nil {
		return err
	}
	defer closer.Close()
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid stored record at %s: %w", key, err)
	}
	return nil
}

// scanPrefix iterates keys under prefix and calls fn with each value. fn
// returning false stops iteration early.
func scanPrefix(prefix string, fn func(key string, value []byte) bool) error {
	if db == nil {
		return notOpen()
	}
	pfx := []byte(prefix)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		if !fn(string(iter.Key()), v) {
			break
		}
	}
	return iter.Error()
}

// ListKeys returns all keys that start with the given prefix. An empty
// prefix returns every key in the store.
func ListKeys(prefix string) ([]string, error) {
	if db == nil {
		return nil, notOpen()
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	if prefix == "" {
		for iter.First(); iter.Valid(); iter.Next() {
			out = append(out, string(append([]byte(nil), iter.Key()...)))
		}
		return out, iter.Error()
	}
	pfx := []byte(prefix)
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(append([]byte(nil), iter.Key()...)))
	}
	return out, iter.Error()
}

// GetKey returns the raw value for the given key.
func GetKey(key string) (string, error) {
	if db == nil {
		return "", notOpen()
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		return "", err
	}
	defer closer.Close()
	return string(v), nil
}

// setRaw writes a raw key/value pair with a synced write.
func setRaw(key string, value []byte) error {
	if db == nil {
		return notOpen()
	}
	if err := db.Set([]byte(key), value, pebble.Sync); err != nil {
		logger.Error("store_set_failed", "key", key, "error", err)
		return err
	}
	return nil
}

func deleteKey(key string) error {
	if db == nil {
		return notOpen()
	}
	return db.Delete([]byte(key), pebble.Sync)
}

// nowNano is a seam for tests.
var nowNano = func() int64 { return time.Now().UTC().UnixNano() }
