package cache

import (
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/omniscale/osmfeatures/cache/leveldb"
	"github.com/omniscale/osmfeatures/logging"
	"github.com/pkg/errors"
)

var log = logging.NewLogger("cache")

// cacheOptions configures a single store. The LevelDB fields are ignored
// by badger and vice versa.
type cacheOptions struct {
	CacheSizeM           int
	MaxOpenFiles         int
	BlockRestartInterval int
	WriteBufferSizeM     int
	BlockSizeK           int

	NumMemtables      int
	ValueLogFileSizeM int
	SyncWrites        bool
}

type osmCacheOptions struct {
	Coords        cacheOptions
	Ways          cacheOptions
	Nodes         cacheOptions
	Relations     cacheOptions
	WayRelations  cacheOptions
	NodeRelations cacheOptions
}

const defaultConfig = `
{
    "Coords": {
        "CacheSizeM": 16,
        "WriteBufferSizeM": 64,
        "MaxOpenFiles": 64,
        "BlockRestartInterval": 256,
        "NumMemtables": 5,
        "ValueLogFileSizeM": 256
    },
    "Nodes": {
        "CacheSizeM": 16,
        "WriteBufferSizeM": 64,
        "MaxOpenFiles": 64,
        "BlockRestartInterval": 128
    },
    "Ways": {
        "CacheSizeM": 16,
        "WriteBufferSizeM": 64,
        "MaxOpenFiles": 64,
        "BlockRestartInterval": 128
    },
    "Relations": {
        "CacheSizeM": 16,
        "WriteBufferSizeM": 64,
        "MaxOpenFiles": 64,
        "BlockRestartInterval": 128
    },
    "WayRelations": {
        "CacheSizeM": 16,
        "WriteBufferSizeM": 64,
        "MaxOpenFiles": 64,
        "BlockRestartInterval": 128
    },
    "NodeRelations": {
        "CacheSizeM": 8,
        "WriteBufferSizeM": 32,
        "MaxOpenFiles": 64,
        "BlockRestartInterval": 128
    }
}
`

const cacheConfigEnv = "IMPOSM_FEATURES_CACHE_CONFIG"

var globalCacheOptions osmCacheOptions

func init() {
	err := json.Unmarshal([]byte(defaultConfig), &globalCacheOptions)
	if err != nil {
		panic(err)
	}

	cacheConfFile := os.Getenv(cacheConfigEnv)
	if cacheConfFile != "" {
		data, err := ioutil.ReadFile(cacheConfFile)
		if err != nil {
			log.Warn("Unable to read cache config: ", err)
			return
		}
		err = json.Unmarshal(data, &globalCacheOptions)
		if err != nil {
			log.Warn("Unable to parse cache config: ", err)
		}
	}
}

func openKV(backend, path string, o *cacheOptions) (KV, error) {
	switch backend {
	case BadgerBackend, "":
		db, err := openBadger(path, o)
		if err != nil {
			return nil, errors.Wrapf(err, "opening badger cache %s", path)
		}
		return db, nil
	case LevelDBBackend:
		db, err := leveldb.Open(path, leveldb.Options{
			CacheSizeM:           o.CacheSizeM,
			MaxOpenFiles:         o.MaxOpenFiles,
			BlockRestartInterval: o.BlockRestartInterval,
			WriteBufferSizeM:     o.WriteBufferSizeM,
			BlockSizeK:           o.BlockSizeK,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "opening leveldb cache %s", path)
		}
		return db, nil
	}
	return nil, errors.Errorf("unknown cache backend '%s'", backend)
}
