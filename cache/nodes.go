package cache

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache/binary"
)

// NodesCache stores tagged nodes only.
type NodesCache struct {
	cache
}

func newNodesCache(backend, path string) (*NodesCache, error) {
	cache := NodesCache{}
	cache.options = &globalCacheOptions.Nodes
	err := cache.open(backend, path)
	if err != nil {
		return nil, err
	}
	return &cache, err
}

func (p *NodesCache) PutNode(node *osm.Node) error {
	if node.ID == SKIP {
		return nil
	}
	if node.Tags == nil {
		return nil
	}
	data, err := binary.MarshalNode(node)
	if err != nil {
		return err
	}
	return p.db.Put(idToKeyBuf(node.ID), data)
}

// PutNodes stores all nodes with non-nil tags and returns how many were
// stored. An empty, non-nil tag set marks a node that was tagged before
// filtering.
func (p *NodesCache) PutNodes(nodes []osm.Node) (int, error) {
	var keys, values [][]byte
	for i := range nodes {
		if nodes[i].ID == SKIP {
			continue
		}
		if nodes[i].Tags == nil {
			continue
		}
		data, err := binary.MarshalNode(&nodes[i])
		if err != nil {
			return 0, err
		}
		keys = append(keys, idToKeyBuf(nodes[i].ID))
		values = append(values, data)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return len(keys), p.db.PutBatch(keys, values)
}

func (p *NodesCache) GetNode(id int64) (*osm.Node, error) {
	data, err := p.db.Get(idToKeyBuf(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, NotFound
	}
	node, err := binary.UnmarshalNode(data)
	if err != nil {
		return nil, err
	}
	node.ID = id
	return node, nil
}

// ForEach calls fn for all nodes in id order. Iteration stops at the first
// error.
func (p *NodesCache) ForEach(fn func(*osm.Node) error) error {
	return p.db.Iterate(func(key, value []byte) error {
		node, err := binary.UnmarshalNode(value)
		if err != nil {
			return err
		}
		node.ID = idFromKeyBuf(key)
		return fn(node)
	})
}
