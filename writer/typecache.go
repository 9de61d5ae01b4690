package writer

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/element"
	"github.com/omniscale/osmfeatures/mapping"
)

// RelationType is the cached classification of a relation.
type RelationType struct {
	Value mapping.Value
	// Boundary is set for relations with type=boundary. Only valid
	// boundary relations retain their Members.
	Boundary bool
	Members  []osm.Member
}

// RelationTypeCache maps relation ids to their classification for one
// run of an Assembler. Entries are never evicted. Invalid classifications
// are cached as well. A RelationTypeCache is not safe for concurrent use,
// every shard needs its own.
type RelationTypeCache struct {
	classifier Classifier
	entries    map[int64]*RelationType
}

func NewRelationTypeCache(classifier Classifier) *RelationTypeCache {
	return &RelationTypeCache{
		classifier: classifier,
		entries:    make(map[int64]*RelationType),
	}
}

// Lookup returns the cached type of relation id.
func (c *RelationTypeCache) Lookup(id int64) (*RelationType, bool) {
	rt, ok := c.entries[id]
	return rt, ok
}

// Resolve classifies rel and caches the result. Multipolygon relations are
// assembled into areas and do not pass their types on to members; for them
// Resolve returns multipolygon=true and caches nothing.
func (c *RelationTypeCache) Resolve(rel *osm.Relation) (rt *RelationType, multipolygon bool) {
	if isMultipolygon(rel.Tags) {
		return nil, true
	}
	rt = &RelationType{
		Value:    classifyRelation(c.classifier, rel.Tags),
		Boundary: rel.Tags["type"] == "boundary",
	}
	if rt.Boundary && rt.Value.IsValid() {
		rt.Members = append([]osm.Member(nil), rel.Members...)
	}
	c.entries[rel.ID] = rt
	return rt, false
}

func (c *RelationTypeCache) Len() int {
	return len(c.entries)
}

func isMultipolygon(tags osm.Tags) bool {
	return tags["type"] == "multipolygon"
}

// classifyRelation classifies relation tags without the type tag.
func classifyRelation(classifier Classifier, tags osm.Tags) mapping.Value {
	if _, ok := tags["type"]; !ok {
		return classifier.Classify(tags)
	}
	withoutType := make(osm.Tags, len(tags))
	for k, v := range tags {
		if k != "type" {
			withoutType[k] = v
		}
	}
	return classifier.Classify(withoutType)
}

// memberRole returns the role of the element kind/id in members. Members
// of the same kind are searched first, then ways, then nodes. Node and way
// ids are separate id spaces, so a node that shares its id with a way
// member must not get the role of that way.
func memberRole(members []osm.Member, relID int64, kind element.Kind, id int64) (string, error) {
	for _, t := range []osm.MemberType{kind.MemberKind(), osm.WayMember, osm.NodeMember} {
		for _, m := range members {
			if m.Type == t && m.ID == id {
				return m.Role, nil
			}
		}
	}
	return "", &MembershipError{RelationID: relID, Kind: kind, ID: id}
}

// typeCollector adds the types of all relations containing an element to
// value. It is the cache.RelationVisitor for the cached relation iteration.
type typeCollector struct {
	types      *RelationTypeCache
	classifier Classifier
	kind       element.Kind
	id         int64
	value      *mapping.Value
}

func (c *typeCollector) VisitCached(relID int64) (bool, error) {
	rt, ok := c.types.Lookup(relID)
	if !ok {
		return false, nil
	}
	return true, c.add(relID, rt)
}

func (c *typeCollector) Visit(rel *osm.Relation) error {
	rt, multipolygon := c.types.Resolve(rel)
	if multipolygon {
		return nil
	}
	return c.add(rel.ID, rt)
}

func (c *typeCollector) add(relID int64, rt *RelationType) error {
	if !rt.Value.IsValid() {
		return nil
	}
	if !rt.Boundary {
		c.value.AddTypes(rt.Value, nil)
		return nil
	}
	role, err := memberRole(rt.Members, relID, c.kind, c.id)
	if err != nil {
		return err
	}
	if role == "inner" {
		c.value.AddTypes(rt.Value, c.classifier.IsBoundary)
	} else {
		c.value.AddTypes(rt.Value, nil)
	}
	return nil
}
