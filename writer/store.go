package writer

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/mapping"
)

// Store provides random access to the elements of the first pass.
// cache.OSMCache implements Store. Implementations must be safe for
// concurrent reads.
type Store interface {
	// GetCoord returns cache.NotFound for unknown nodes.
	GetCoord(id int64) (*osm.Node, error)
	// GetWay returns cache.NotFound for unknown ways.
	GetWay(id int64) (*osm.Way, error)
	ForEachRelationByWay(id int64, fn func(*osm.Relation) error) error
	ForEachRelationByNode(id int64, fn func(*osm.Relation) error) error
	ForEachRelationByWayCached(id int64, v cache.RelationVisitor) error
	ForEachRelationByNodeCached(id int64, v cache.RelationVisitor) error
}

// Classifier resolves tags to semantic types. mapping.Mapping implements
// Classifier.
type Classifier interface {
	Classify(tags osm.Tags) mapping.Value
	RemoveNoDrawable(v *mapping.Value, g mapping.GeomType) bool
	IsDrawableLike(v mapping.Value, g mapping.GeomType) bool
	IsBoundary(t mapping.Type) bool
	CoastlineType() mapping.Type
}

var (
	_ Store      = &cache.OSMCache{}
	_ Classifier = &mapping.Mapping{}
)
