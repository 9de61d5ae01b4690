package cache

import (
	bin "encoding/binary"
)

// KV is a persistent, ordered key-value store. Get returns nil, nil for
// missing keys. Implementations must allow concurrent Get calls.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	PutBatch(keys, values [][]byte) error
	// Iterate calls fn for all entries in key order. Key and value are only
	// valid during the call.
	Iterate(fn func(key, value []byte) error) error
	Close() error
}

const (
	BadgerBackend  = "badger"
	LevelDBBackend = "leveldb"
)

type cache struct {
	db      KV
	options *cacheOptions
}

func (c *cache) open(backend, path string) error {
	db, err := openKV(backend, path, c.options)
	if err != nil {
		return err
	}
	c.db = db
	return nil
}

func (c *cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// big-endian keys keep the iteration in id order
func idToKeyBuf(id int64) []byte {
	b := make([]byte, 8)
	bin.BigEndian.PutUint64(b, uint64(id))
	return b[:8]
}

func idFromKeyBuf(buf []byte) int64 {
	return int64(bin.BigEndian.Uint64(buf))
}
