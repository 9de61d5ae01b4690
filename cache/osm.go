// Package cache stores OSM elements by id for the second pass.
//
// An OSMCache consists of one key-value store per element kind plus the
// reverse indexes from way and node members to the relations containing
// them. Stores are backed by badger (default) or LevelDB.
package cache

import (
	"errors"
	"os"
	"path/filepath"

	osm "github.com/omniscale/go-osm"
)

var (
	NotFound = errors.New("not found")
)

const SKIP int64 = -1

var storeNames = []string{"coords", "nodes", "ways", "relations", "way_relations", "node_relations"}

type OSMCache struct {
	dir           string
	backend       string
	Coords        *CoordsCache
	Nodes         *NodesCache
	Ways          *WaysCache
	Relations     *RelationsCache
	WayRelations  *RelationIndex
	NodeRelations *RelationIndex
	opened        bool
}

func (c *OSMCache) Close() {
	if c.Coords != nil {
		c.Coords.Close()
		c.Coords = nil
	}
	if c.Nodes != nil {
		c.Nodes.Close()
		c.Nodes = nil
	}
	if c.Ways != nil {
		c.Ways.Close()
		c.Ways = nil
	}
	if c.Relations != nil {
		c.Relations.Close()
		c.Relations = nil
	}
	if c.WayRelations != nil {
		c.WayRelations.Close()
		c.WayRelations = nil
	}
	if c.NodeRelations != nil {
		c.NodeRelations.Close()
		c.NodeRelations = nil
	}
	c.opened = false
}

// NewOSMCache returns an unopened cache in dir. backend is BadgerBackend
// or LevelDBBackend.
func NewOSMCache(dir, backend string) *OSMCache {
	return &OSMCache{dir: dir, backend: backend}
}

func (c *OSMCache) Dir() string {
	return c.dir
}

func (c *OSMCache) Open() error {
	err := os.MkdirAll(c.dir, 0755)
	if err != nil {
		return err
	}
	c.Coords, err = newCoordsCache(c.backend, filepath.Join(c.dir, "coords"))
	if err != nil {
		return err
	}
	c.Nodes, err = newNodesCache(c.backend, filepath.Join(c.dir, "nodes"))
	if err != nil {
		c.Close()
		return err
	}
	c.Ways, err = newWaysCache(c.backend, filepath.Join(c.dir, "ways"))
	if err != nil {
		c.Close()
		return err
	}
	c.Relations, err = newRelationsCache(c.backend, filepath.Join(c.dir, "relations"))
	if err != nil {
		c.Close()
		return err
	}
	c.WayRelations, err = newRelationIndex(c.backend, filepath.Join(c.dir, "way_relations"),
		osm.WayMember, &globalCacheOptions.WayRelations)
	if err != nil {
		c.Close()
		return err
	}
	c.NodeRelations, err = newRelationIndex(c.backend, filepath.Join(c.dir, "node_relations"),
		osm.NodeMember, &globalCacheOptions.NodeRelations)
	if err != nil {
		c.Close()
		return err
	}
	c.opened = true
	return nil
}

func (c *OSMCache) Exists() bool {
	if c.opened {
		return true
	}
	for _, name := range storeNames {
		if _, err := os.Stat(filepath.Join(c.dir, name)); !os.IsNotExist(err) {
			return true
		}
	}
	return false
}

func (c *OSMCache) Remove() error {
	if c.opened {
		c.Close()
	}
	for _, name := range storeNames {
		if err := os.RemoveAll(filepath.Join(c.dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// GetCoord returns the position of node id, NotFound if it is unknown.
func (c *OSMCache) GetCoord(id int64) (*osm.Node, error) {
	return c.Coords.GetCoord(id)
}

func (c *OSMCache) GetWay(id int64) (*osm.Way, error) {
	return c.Ways.GetWay(id)
}

func (c *OSMCache) GetRelation(id int64) (*osm.Relation, error) {
	return c.Relations.GetRelation(id)
}

// ForEachRelationByWay calls fn for each relation containing way id, in
// ascending relation id order.
func (c *OSMCache) ForEachRelationByWay(id int64, fn func(*osm.Relation) error) error {
	return c.forEachRelation(c.WayRelations, id, fn)
}

// ForEachRelationByNode calls fn for each relation containing node id.
func (c *OSMCache) ForEachRelationByNode(id int64, fn func(*osm.Relation) error) error {
	return c.forEachRelation(c.NodeRelations, id, fn)
}

func (c *OSMCache) forEachRelation(idx *RelationIndex, id int64, fn func(*osm.Relation) error) error {
	relIDs, err := idx.Get(id)
	if err != nil {
		return err
	}
	for _, relID := range relIDs {
		rel, err := c.Relations.GetRelation(relID)
		if err == NotFound {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(rel); err != nil {
			return err
		}
	}
	return nil
}

// RelationVisitor visits the relations containing an element.
// VisitCached is called with the relation id first; the relation is only
// loaded and passed to Visit if VisitCached returns false.
type RelationVisitor interface {
	VisitCached(relID int64) (bool, error)
	Visit(rel *osm.Relation) error
}

// ForEachRelationByWayCached is ForEachRelationByWay for visitors that
// keep their own per-relation state.
func (c *OSMCache) ForEachRelationByWayCached(id int64, v RelationVisitor) error {
	return c.forEachRelationCached(c.WayRelations, id, v)
}

func (c *OSMCache) ForEachRelationByNodeCached(id int64, v RelationVisitor) error {
	return c.forEachRelationCached(c.NodeRelations, id, v)
}

func (c *OSMCache) forEachRelationCached(idx *RelationIndex, id int64, v RelationVisitor) error {
	relIDs, err := idx.Get(id)
	if err != nil {
		return err
	}
	for _, relID := range relIDs {
		known, err := v.VisitCached(relID)
		if err != nil {
			return err
		}
		if known {
			continue
		}
		rel, err := c.Relations.GetRelation(relID)
		if err == NotFound {
			continue
		}
		if err != nil {
			return err
		}
		if err := v.Visit(rel); err != nil {
			return err
		}
	}
	return nil
}
