package writer

import (
	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/element"
	"github.com/omniscale/osmfeatures/feature"
	"github.com/omniscale/osmfeatures/geom"
	"github.com/omniscale/osmfeatures/logging"
	"github.com/omniscale/osmfeatures/mapping"
	"github.com/omniscale/osmfeatures/proj"
	"github.com/omniscale/osmfeatures/stats"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

var log = logging.NewLogger("writer")

// Reasons for dropped elements, as counted in stats.Statistics.
const (
	RejectNoType          = "no-type"
	RejectNotDrawable     = "not-drawable"
	RejectMissingCoord    = "missing-coord"
	RejectTooFewPoints    = "too-few-points"
	RejectInvalidRing     = "invalid-ring"
	RejectOpenRing        = "open-ring"
	RejectNotMultipolygon = "not-multipolygon"
)

// WarnAmbiguousOuter counts ways that are outer members of more than one
// multipolygon.
const WarnAmbiguousOuter = "ambiguous-outer"

type Options struct {
	// MatchHolesToRings attaches holes of a multipolygon only to the outer
	// rings that contain them. By default every ring gets all holes.
	MatchHolesToRings bool
	// StrictOuter makes a way that is outer in multiple multipolygons a
	// fatal error.
	StrictOuter bool
	Projector   proj.Projector
	Progress    *stats.Statistics
}

// Assembler turns raw elements into features. It processes one element at
// a time and is not safe for concurrent use.
type Assembler struct {
	pointResolver
	classifier Classifier
	types      *RelationTypeCache
	holes      *HoleCollector
	emitter    feature.Emitter
	progress   *stats.Statistics
	matchHoles bool
}

// NewAssembler returns an Assembler that classifies with classifier and
// emits to emitter. types is the relation type cache for the lifetime of
// this Assembler's run.
func NewAssembler(store Store, classifier Classifier, types *RelationTypeCache, emitter feature.Emitter, opts Options) *Assembler {
	progress := opts.Progress
	if progress == nil {
		progress = stats.New()
	}
	return &Assembler{
		pointResolver: pointResolver{store: store, proj: opts.Projector},
		classifier:    classifier,
		types:         types,
		holes:         NewHoleCollector(store, opts.Projector, progress, opts.StrictOuter),
		emitter:       emitter,
		progress:      progress,
		matchHoles:    opts.MatchHolesToRings,
	}
}

// Process assembles and emits all features of elem. Dropped elements are
// not an error. Errors are fatal for the whole run: malformed ids
// (*element.IDError), inconsistent relation memberships (*MembershipError),
// ambiguous outer ways in strict mode (*AmbiguousOuterError), store and
// emitter errors. Use errors.Cause to get the typed error.
func (a *Assembler) Process(elem element.RawElement) error {
	var err error
	switch elem.Kind {
	case element.NODE:
		err = a.processNode(&elem)
	case element.WAY:
		err = a.processWay(&elem)
	case element.RELATION:
		err = a.processRelation(&elem)
	default:
		return errors.Errorf("unknown element kind '%s' for %s", elem.Kind, elem.ID)
	}
	if err != nil {
		return errors.Wrapf(err, "processing %s %s", elem.Kind, elem.ID)
	}
	return nil
}

func (a *Assembler) reject(kind element.Kind, id int64, reason string) {
	a.progress.Reject(reason)
	log.Debugf("dropped %s %d: %s", kind, id, reason)
}

func (a *Assembler) emit(f *feature.Feature) error {
	if err := a.emitter.Emit(f); err != nil {
		return errors.Wrap(err, "emitting feature")
	}
	switch f.Kind {
	case feature.Point:
		a.progress.AddPoints(1)
	case feature.Line:
		a.progress.AddLines(1)
	case feature.Area:
		a.progress.AddAreas(1)
	}
	return nil
}

// relationTypes adds the types of all relations containing kind/id to
// value.
func (a *Assembler) relationTypes(kind element.Kind, id int64, value *mapping.Value) error {
	c := &typeCollector{
		types:      a.types,
		classifier: a.classifier,
		kind:       kind,
		id:         id,
		value:      value,
	}
	var err error
	if kind == element.NODE {
		err = a.store.ForEachRelationByNodeCached(id, c)
	} else {
		err = a.store.ForEachRelationByWayCached(id, c)
	}
	value.Finish()
	return err
}

func (a *Assembler) processNode(elem *element.RawElement) error {
	id, err := elem.ParseID()
	if err != nil {
		return err
	}
	a.progress.AddNodes(1)

	value := a.classifier.Classify(elem.Tags)
	if !value.IsValid() {
		if err := a.relationTypes(element.NODE, id, &value); err != nil {
			return err
		}
	}
	if !value.IsValid() {
		a.reject(element.NODE, id, RejectNoType)
		return nil
	}
	if !a.classifier.RemoveNoDrawable(&value, mapping.PointGeom) {
		a.reject(element.NODE, id, RejectNotDrawable)
		return nil
	}
	nd, err := a.store.GetCoord(id)
	if err == cache.NotFound {
		a.reject(element.NODE, id, RejectMissingCoord)
		return nil
	}
	if err != nil {
		return err
	}
	return a.emit(feature.NewPoint(a.proj.Point(nd), value.Types, feature.OsmID{Type: element.NODE, ID: id}))
}

func (a *Assembler) processWay(elem *element.RawElement) error {
	id, err := elem.ParseID()
	if err != nil {
		return err
	}
	refs, err := elem.ParseRefs()
	if err != nil {
		return err
	}
	a.progress.AddWays(1)

	value := a.classifier.Classify(elem.Tags)
	if err := a.relationTypes(element.WAY, id, &value); err != nil {
		return err
	}
	if !value.IsValid() {
		a.reject(element.WAY, id, RejectNoType)
		return nil
	}

	seg, err := a.segment(id, refs)
	if err != nil {
		return err
	}
	if len(seg.Points) < 2 {
		a.reject(element.WAY, id, RejectTooFewPoints)
		return nil
	}
	src := feature.OsmID{Type: element.WAY, ID: id}
	closed := geom.IsClosed(seg.Points)

	if closed && a.classifier.IsDrawableLike(value, mapping.AreaGeom) {
		if !geom.ValidRing(seg.Points) {
			a.reject(element.WAY, id, RejectInvalidRing)
			return nil
		}
		holes, err := a.holes.Collect(id)
		if err != nil {
			return err
		}
		shell := geom.OpenRing(seg.Points)
		return a.emit(feature.NewArea(a.polygon(shell, holes), value.Types, src))
	}

	emitted := false
	if closed {
		points := value.Copy()
		if a.classifier.RemoveNoDrawable(&points, mapping.PointGeom) {
			if err := a.emit(feature.NewPoint(geom.Centroid(seg.Points), points.Types, src)); err != nil {
				return err
			}
			emitted = true
		}
	}

	// coastlines are always lines and keep all their types
	lines := value.Copy()
	if coast := a.classifier.CoastlineType(); (coast != 0 && value.Has(coast)) ||
		a.classifier.RemoveNoDrawable(&lines, mapping.LineGeom) {
		if err := a.emit(feature.NewLine(orb.LineString(seg.Points), lines.Types, src)); err != nil {
			return err
		}
		emitted = true
	}

	if !emitted {
		a.reject(element.WAY, id, RejectNotDrawable)
	}
	return nil
}

func (a *Assembler) processRelation(elem *element.RawElement) error {
	id, err := elem.ParseID()
	if err != nil {
		return err
	}
	a.progress.AddRelations(1)

	if !isMultipolygon(elem.Tags) {
		a.reject(element.RELATION, id, RejectNotMultipolygon)
		return nil
	}
	value := classifyRelation(a.classifier, elem.Tags)
	if !a.classifier.IsDrawableLike(value, mapping.AreaGeom) {
		a.reject(element.RELATION, id, RejectNotDrawable)
		return nil
	}

	var outer []geom.Segment
	var inner []osm.Member
	for _, m := range elem.Members {
		ref, err := elem.ParseMemberRef(m)
		if err != nil {
			return err
		}
		if m.Type != string(element.WAY) {
			continue
		}
		switch m.Role {
		case "outer":
			seg, ok, err := a.waySegment(ref)
			if err != nil {
				return err
			}
			if ok {
				outer = append(outer, seg)
			}
		case "inner":
			inner = append(inner, osm.Member{ID: ref, Type: osm.WayMember, Role: m.Role})
		}
	}

	holes, err := a.holeRings(inner, cache.SKIP)
	if err != nil {
		return err
	}

	for _, path := range geom.Stitch(outer) {
		if !path.Closed() {
			a.reject(element.RELATION, id, RejectOpenRing)
			continue
		}
		if !geom.ValidRing(path.Points) {
			a.reject(element.RELATION, id, RejectInvalidRing)
			continue
		}
		sources := make([]feature.OsmID, 0, len(path.WayIDs)+1)
		for _, wayID := range path.WayIDs {
			sources = append(sources, feature.OsmID{Type: element.WAY, ID: wayID})
		}
		sources = append(sources, feature.OsmID{Type: element.RELATION, ID: id})
		poly := a.polygon(geom.OpenRing(path.Points), holes)
		if err := a.emit(feature.NewArea(poly, value.Types, sources...)); err != nil {
			return err
		}
	}
	return nil
}

// polygon returns shell with all holes, or only with the holes inside of
// shell when holes are matched to rings.
func (a *Assembler) polygon(shell orb.Ring, holes []orb.Ring) orb.Polygon {
	poly := make(orb.Polygon, 1, len(holes)+1)
	poly[0] = shell
	for _, h := range holes {
		if a.matchHoles && !geom.RingContainsRing(shell, h) {
			continue
		}
		poly = append(poly, h)
	}
	return poly
}
