// Package leveldb provides a LevelDB key-value store for the element cache.
package leveldb

import (
	"github.com/jmhodges/levigo"
)

type Options struct {
	CacheSizeM           int
	MaxOpenFiles         int
	BlockRestartInterval int
	WriteBufferSizeM     int
	BlockSizeK           int
}

type DB struct {
	db    *levigo.DB
	cache *levigo.Cache
	wo    *levigo.WriteOptions
	ro    *levigo.ReadOptions
}

func Open(path string, o Options) (*DB, error) {
	opts := levigo.NewOptions()
	defer opts.Close()
	opts.SetCreateIfMissing(true)

	c := &DB{}
	if o.CacheSizeM > 0 {
		c.cache = levigo.NewLRUCache(o.CacheSizeM * 1024 * 1024)
		opts.SetCache(c.cache)
	}
	if o.MaxOpenFiles > 0 {
		opts.SetMaxOpenFiles(o.MaxOpenFiles)
	}
	if o.BlockRestartInterval > 0 {
		opts.SetBlockRestartInterval(o.BlockRestartInterval)
	}
	if o.WriteBufferSizeM > 0 {
		opts.SetWriteBufferSize(o.WriteBufferSizeM * 1024 * 1024)
	}
	if o.BlockSizeK > 0 {
		opts.SetBlockSize(o.BlockSizeK * 1024)
	}

	db, err := levigo.Open(path, opts)
	if err != nil {
		if c.cache != nil {
			c.cache.Close()
		}
		return nil, err
	}
	c.db = db
	c.wo = levigo.NewWriteOptions()
	c.ro = levigo.NewReadOptions()
	return c, nil
}

func (c *DB) Get(key []byte) ([]byte, error) {
	return c.db.Get(c.ro, key)
}

func (c *DB) Put(key, value []byte) error {
	return c.db.Put(c.wo, key, value)
}

func (c *DB) PutBatch(keys, values [][]byte) error {
	batch := levigo.NewWriteBatch()
	defer batch.Close()
	for i := range keys {
		batch.Put(keys[i], values[i])
	}
	return c.db.Write(c.wo, batch)
}

func (c *DB) Iterate(fn func(key, value []byte) error) error {
	ro := levigo.NewReadOptions()
	defer ro.Close()
	ro.SetFillCache(false)
	it := c.db.NewIterator(ro)
	defer it.Close()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.GetError()
}

func (c *DB) Close() error {
	if c.ro != nil {
		c.ro.Close()
		c.ro = nil
	}
	if c.wo != nil {
		c.wo.Close()
		c.wo = nil
	}
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	if c.cache != nil {
		c.cache.Close()
		c.cache = nil
	}
	return nil
}
