package cache

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache/binary"
)

type WaysCache struct {
	cache
}

func newWaysCache(backend, path string) (*WaysCache, error) {
	cache := WaysCache{}
	cache.options = &globalCacheOptions.Ways
	err := cache.open(backend, path)
	if err != nil {
		return nil, err
	}
	return &cache, err
}

func (c *WaysCache) PutWay(way *osm.Way) error {
	if way.ID == SKIP {
		return nil
	}
	data, err := binary.MarshalWay(way)
	if err != nil {
		return err
	}
	return c.db.Put(idToKeyBuf(way.ID), data)
}

func (c *WaysCache) PutWays(ways []osm.Way) error {
	keys := make([][]byte, 0, len(ways))
	values := make([][]byte, 0, len(ways))
	for i := range ways {
		if ways[i].ID == SKIP {
			continue
		}
		data, err := binary.MarshalWay(&ways[i])
		if err != nil {
			return err
		}
		keys = append(keys, idToKeyBuf(ways[i].ID))
		values = append(values, data)
	}
	return c.db.PutBatch(keys, values)
}

func (c *WaysCache) GetWay(id int64) (*osm.Way, error) {
	data, err := c.db.Get(idToKeyBuf(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, NotFound
	}
	way, err := binary.UnmarshalWay(data)
	if err != nil {
		return nil, err
	}
	way.ID = id
	return way, nil
}

func (c *WaysCache) ForEach(fn func(*osm.Way) error) error {
	return c.db.Iterate(func(key, value []byte) error {
		way, err := binary.UnmarshalWay(value)
		if err != nil {
			return err
		}
		way.ID = idFromKeyBuf(key)
		return fn(way)
	})
}

// FillMembers sets Way for all way members. Missing ways are left nil.
func (c *WaysCache) FillMembers(members []osm.Member) error {
	for i, member := range members {
		if member.Type != osm.WayMember {
			continue
		}
		way, err := c.GetWay(member.ID)
		if err == NotFound {
			continue
		}
		if err != nil {
			return err
		}
		members[i].Way = way
	}
	return nil
}
