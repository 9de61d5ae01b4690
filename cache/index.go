package cache

import (
	"sync"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache/binary"
	"github.com/omniscale/osmfeatures/element"
)

// RelationIndex maps member ids of one member type to the ids of all
// relations containing them.
type RelationIndex struct {
	cache
	memberType osm.MemberType
	mu         sync.Mutex
}

func newRelationIndex(backend, path string, memberType osm.MemberType, options *cacheOptions) (*RelationIndex, error) {
	idx := RelationIndex{memberType: memberType}
	idx.options = options
	err := idx.open(backend, path)
	if err != nil {
		return nil, err
	}
	return &idx, err
}

// AddRelations indexes all members of rels with idx's member type. Relations
// that are not stored in the RelationsCache must not be indexed.
func (idx *RelationIndex) AddRelations(rels []osm.Relation) error {
	refs := make(map[int64]*element.IdRefs)
	for i := range rels {
		if rels[i].ID == SKIP || len(rels[i].Tags) == 0 {
			continue
		}
		for _, m := range rels[i].Members {
			if m.Type != idx.memberType {
				continue
			}
			r, ok := refs[m.ID]
			if !ok {
				r = &element.IdRefs{Id: m.ID}
				refs[m.ID] = r
			}
			r.Add(rels[i].ID)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	// read-modify-write of existing entries
	idx.mu.Lock()
	defer idx.mu.Unlock()
	keys := make([][]byte, 0, len(refs))
	values := make([][]byte, 0, len(refs))
	for id, r := range refs {
		key := idToKeyBuf(id)
		existing, err := idx.get(key)
		if err != nil {
			return err
		}
		for _, relID := range existing {
			r.Add(relID)
		}
		keys = append(keys, key)
		values = append(values, binary.MarshalIdRefs(r.Refs))
	}
	return idx.db.PutBatch(keys, values)
}

func (idx *RelationIndex) get(key []byte) ([]int64, error) {
	data, err := idx.db.Get(key)
	if err != nil || data == nil {
		return nil, err
	}
	return binary.UnmarshalIdRefs(data)
}

// Get returns the sorted ids of all relations containing the member id.
func (idx *RelationIndex) Get(id int64) ([]int64, error) {
	return idx.get(idToKeyBuf(id))
}
