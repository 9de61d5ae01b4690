package cache

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache/binary"
)

type RelationsCache struct {
	cache
}

func newRelationsCache(backend, path string) (*RelationsCache, error) {
	cache := RelationsCache{}
	cache.options = &globalCacheOptions.Relations
	err := cache.open(backend, path)
	if err != nil {
		return nil, err
	}
	return &cache, err
}

func (p *RelationsCache) PutRelation(relation *osm.Relation) error {
	if relation.ID == SKIP {
		return nil
	}
	data, err := binary.MarshalRelation(relation)
	if err != nil {
		return err
	}
	return p.db.Put(idToKeyBuf(relation.ID), data)
}

// PutRelations stores all tagged relations. Untagged relations can neither
// be classified nor lend types to their members.
func (p *RelationsCache) PutRelations(rels []osm.Relation) error {
	var keys, values [][]byte
	for i := range rels {
		if rels[i].ID == SKIP {
			continue
		}
		if len(rels[i].Tags) == 0 {
			continue
		}
		data, err := binary.MarshalRelation(&rels[i])
		if err != nil {
			return err
		}
		keys = append(keys, idToKeyBuf(rels[i].ID))
		values = append(values, data)
	}
	if len(keys) == 0 {
		return nil
	}
	return p.db.PutBatch(keys, values)
}

func (p *RelationsCache) GetRelation(id int64) (*osm.Relation, error) {
	data, err := p.db.Get(idToKeyBuf(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, NotFound
	}
	relation, err := binary.UnmarshalRelation(data)
	if err != nil {
		return nil, err
	}
	relation.ID = id
	return relation, nil
}

func (p *RelationsCache) ForEach(fn func(*osm.Relation) error) error {
	return p.db.Iterate(func(key, value []byte) error {
		rel, err := binary.UnmarshalRelation(value)
		if err != nil {
			return err
		}
		rel.ID = idFromKeyBuf(key)
		return fn(rel)
	})
}
