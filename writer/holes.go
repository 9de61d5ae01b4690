package writer

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/geom"
	"github.com/omniscale/osmfeatures/proj"
	"github.com/omniscale/osmfeatures/stats"

	"github.com/paulmach/orb"
)

// pointResolver resolves way node refs to projected points.
type pointResolver struct {
	store Store
	proj  proj.Projector
}

// segment returns the points of all refs with a known coordinate. Unknown
// nodes are skipped.
func (r *pointResolver) segment(wayID int64, refs []int64) (geom.Segment, error) {
	seg := geom.Segment{
		WayID:  wayID,
		Refs:   make([]int64, 0, len(refs)),
		Points: make([]orb.Point, 0, len(refs)),
	}
	for _, ref := range refs {
		nd, err := r.store.GetCoord(ref)
		if err == cache.NotFound {
			continue
		}
		if err != nil {
			return seg, err
		}
		seg.Refs = append(seg.Refs, ref)
		seg.Points = append(seg.Points, r.proj.Point(nd))
	}
	return seg, nil
}

// waySegment loads way id and resolves its points. ok is false for unknown
// ways.
func (r *pointResolver) waySegment(id int64) (seg geom.Segment, ok bool, err error) {
	way, err := r.store.GetWay(id)
	if err == cache.NotFound {
		return seg, false, nil
	}
	if err != nil {
		return seg, false, err
	}
	seg, err = r.segment(id, way.Refs)
	return seg, err == nil, err
}

// holeRings builds rings from all inner way members except exclude, which
// is cache.SKIP to keep all of them.
// Closed ways are rings on their own, open ways are stitched with each
// other. Only valid rings are returned.
func (r *pointResolver) holeRings(members []osm.Member, exclude int64) ([]orb.Ring, error) {
	var rings []orb.Ring
	var open []geom.Segment
	for _, m := range members {
		if m.Type != osm.WayMember || m.Role != "inner" || m.ID == exclude {
			continue
		}
		seg, ok, err := r.waySegment(m.ID)
		if err != nil {
			return nil, err
		}
		if !ok || !seg.Valid() {
			continue
		}
		if geom.IsClosed(seg.Points) {
			if geom.ValidRing(seg.Points) {
				rings = append(rings, geom.OpenRing(seg.Points))
			}
			continue
		}
		open = append(open, seg)
	}
	for _, p := range geom.Stitch(open) {
		if geom.ValidRing(p.Points) {
			rings = append(rings, geom.OpenRing(p.Points))
		}
	}
	return rings, nil
}

// HoleCollector finds the holes of a closed way that is the outer member of
// a multipolygon relation.
type HoleCollector struct {
	pointResolver
	progress *stats.Statistics
	strict   bool
}

func NewHoleCollector(store Store, projector proj.Projector, progress *stats.Statistics, strictOuter bool) *HoleCollector {
	if progress == nil {
		progress = stats.New()
	}
	return &HoleCollector{
		pointResolver: pointResolver{store: store, proj: projector},
		progress:      progress,
		strict:        strictOuter,
	}
}

// Collect returns the inner rings of the first multipolygon in which
// outerWayID is an outer member, in ascending relation id order. A way
// should be outer in one multipolygon only. Further multipolygons are
// ignored with a warning, or result in an AmbiguousOuterError in strict
// mode.
func (h *HoleCollector) Collect(outerWayID int64) ([]orb.Ring, error) {
	var found *osm.Relation
	var others []int64
	err := h.store.ForEachRelationByWay(outerWayID, func(rel *osm.Relation) error {
		if !isMultipolygon(rel.Tags) || !hasOuterWay(rel, outerWayID) {
			return nil
		}
		if found == nil {
			found = rel
		} else {
			others = append(others, rel.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, nil
	}
	if len(others) > 0 {
		h.progress.Warn(WarnAmbiguousOuter)
		if h.strict {
			return nil, &AmbiguousOuterError{WayID: outerWayID, Relations: append([]int64{found.ID}, others...)}
		}
		log.Warnf("way %d is outer member of multipolygons %d and %v, using holes of %d",
			outerWayID, found.ID, others, found.ID)
	}
	return h.holeRings(found.Members, outerWayID)
}

func hasOuterWay(rel *osm.Relation, wayID int64) bool {
	for _, m := range rel.Members {
		if m.Type == osm.WayMember && m.ID == wayID && m.Role == "outer" {
			return true
		}
	}
	return false
}
