package cache

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache/binary"
)

// CoordsCache stores the position of every node, tagged or not.
type CoordsCache struct {
	cache
}

func newCoordsCache(backend, path string) (*CoordsCache, error) {
	cache := CoordsCache{}
	cache.options = &globalCacheOptions.Coords
	err := cache.open(backend, path)
	if err != nil {
		return nil, err
	}
	return &cache, err
}

func (c *CoordsCache) PutCoord(node *osm.Node) error {
	if node.ID == SKIP {
		return nil
	}
	return c.db.Put(idToKeyBuf(node.ID), binary.MarshalCoord(node))
}

func (c *CoordsCache) PutCoords(nodes []osm.Node) error {
	keys := make([][]byte, 0, len(nodes))
	values := make([][]byte, 0, len(nodes))
	for i := range nodes {
		if nodes[i].ID == SKIP {
			continue
		}
		keys = append(keys, idToKeyBuf(nodes[i].ID))
		values = append(values, binary.MarshalCoord(&nodes[i]))
	}
	return c.db.PutBatch(keys, values)
}

// GetCoord returns the node with its position but without tags.
func (c *CoordsCache) GetCoord(id int64) (*osm.Node, error) {
	data, err := c.db.Get(idToKeyBuf(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, NotFound
	}
	return binary.UnmarshalCoord(id, data)
}
