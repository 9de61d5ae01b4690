package cache

import (
	"github.com/dgraph-io/badger"
	"github.com/omniscale/osmfeatures/logging"
)

type BadgerDB struct {
	*badger.DB
}

func openBadger(path string, o *cacheOptions) (*BadgerDB, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = o.SyncWrites
	if o.NumMemtables > 0 {
		opts.NumMemtables = o.NumMemtables
	}
	if o.ValueLogFileSizeM > 0 {
		opts.ValueLogFileSize = int64(o.ValueLogFileSizeM) * 1024 * 1024
	}
	opts.Logger = &badgerLogger{logging.NewLogger("badger")}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerDB{db}, nil
}

func (db *BadgerDB) Get(key []byte) ([]byte, error) {
	var data []byte
	err := db.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

func (db *BadgerDB) Put(key, value []byte) error {
	return db.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// PutBatch writes all entries, committing whenever the transaction grows
// too large. The batch is not atomic.
func (db *BadgerDB) PutBatch(keys, values [][]byte) error {
	txn := db.DB.NewTransaction(true)
	for i := range keys {
		err := txn.Set(keys[i], values[i])
		if err == badger.ErrTxnTooBig {
			if err := txn.Commit(); err != nil {
				return err
			}
			txn = db.DB.NewTransaction(true)
			err = txn.Set(keys[i], values[i])
		}
		if err != nil {
			txn.Discard()
			return err
		}
	}
	return txn.Commit()
}

func (db *BadgerDB) Iterate(fn func(key, value []byte) error) error {
	return db.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.Key(), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// badgerLogger routes badger's own messages through our logger. Info and
// debug messages are only shown in debug mode.
type badgerLogger struct {
	log *logging.Logger
}

func (l *badgerLogger) Errorf(msg string, args ...interface{}) {
	l.log.Errorf(msg, args...)
}

func (l *badgerLogger) Warningf(msg string, args ...interface{}) {
	l.log.Warnf(msg, args...)
}

func (l *badgerLogger) Infof(msg string, args ...interface{}) {
	l.log.Debugf(msg, args...)
}

func (l *badgerLogger) Debugf(msg string, args ...interface{}) {
	l.log.Debugf(msg, args...)
}
