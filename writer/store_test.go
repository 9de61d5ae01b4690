package writer

import (
	"sort"
	"strconv"
	"testing"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/element"
	"github.com/omniscale/osmfeatures/feature"
	"github.com/omniscale/osmfeatures/mapping"
)

const testMapping = `
boundary: boundary-administrative
coastline: natural-coastline
types:
  - name: amenity-cafe
    tags: {amenity: cafe}
    geometry: [point, area]
  - name: building
    tags: {building: __any__}
    geometry: [area]
  - name: highway-primary
    tags: {highway: primary}
    geometry: [line]
  - name: natural-coastline
    tags: {natural: coastline}
    geometry: []
  - name: natural-water
    tags: {natural: water}
    geometry: [area]
  - name: boundary-administrative
    tags: {boundary: administrative}
    geometry: [point, line]
  - name: place-city
    tags: {place: city}
    geometry: [point]
  - name: route-bus
    tags: {route: bus}
    geometry: [line]
`

func testClassifier(t *testing.T) *mapping.Mapping {
	t.Helper()
	m, err := mapping.FromBytes([]byte(testMapping))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// testStore is an in-memory Store that counts relation loads.
type testStore struct {
	coords        map[int64]*osm.Node
	ways          map[int64]*osm.Way
	relations     map[int64]*osm.Relation
	wayRelations  map[int64][]int64
	nodeRelations map[int64][]int64
	relationLoads int
}

func newTestStore() *testStore {
	return &testStore{
		coords:        make(map[int64]*osm.Node),
		ways:          make(map[int64]*osm.Way),
		relations:     make(map[int64]*osm.Relation),
		wayRelations:  make(map[int64][]int64),
		nodeRelations: make(map[int64][]int64),
	}
}

func (s *testStore) addNode(id int64, long, lat float64) {
	nd := &osm.Node{Long: long, Lat: lat}
	nd.ID = id
	s.coords[id] = nd
}

func (s *testStore) addWay(id int64, tags osm.Tags, refs ...int64) *osm.Way {
	w := &osm.Way{Refs: refs}
	w.ID = id
	w.Tags = tags
	s.ways[id] = w
	return w
}

// addRing adds a closed way with new nodes at points.
func (s *testStore) addRing(wayID, firstNodeID int64, tags osm.Tags, points ...[2]float64) *osm.Way {
	refs := make([]int64, 0, len(points)+1)
	for i, p := range points {
		id := firstNodeID + int64(i)
		s.addNode(id, p[0], p[1])
		refs = append(refs, id)
	}
	refs = append(refs, firstNodeID)
	return s.addWay(wayID, tags, refs...)
}

func (s *testStore) addRelation(id int64, tags osm.Tags, members ...osm.Member) *osm.Relation {
	r := &osm.Relation{Members: members}
	r.ID = id
	r.Tags = tags
	s.relations[id] = r
	for _, m := range members {
		switch m.Type {
		case osm.WayMember:
			s.wayRelations[m.ID] = addID(s.wayRelations[m.ID], id)
		case osm.NodeMember:
			s.nodeRelations[m.ID] = addID(s.nodeRelations[m.ID], id)
		}
	}
	return r
}

func addID(ids []int64, id int64) []int64 {
	for _, other := range ids {
		if other == id {
			return ids
		}
	}
	ids = append(ids, id)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func wayMember(id int64, role string) osm.Member {
	return osm.Member{ID: id, Type: osm.WayMember, Role: role}
}

func nodeMember(id int64, role string) osm.Member {
	return osm.Member{ID: id, Type: osm.NodeMember, Role: role}
}

func (s *testStore) GetCoord(id int64) (*osm.Node, error) {
	if nd, ok := s.coords[id]; ok {
		return nd, nil
	}
	return nil, cache.NotFound
}

func (s *testStore) GetWay(id int64) (*osm.Way, error) {
	if w, ok := s.ways[id]; ok {
		return w, nil
	}
	return nil, cache.NotFound
}

func (s *testStore) load(id int64) (*osm.Relation, bool) {
	s.relationLoads++
	r, ok := s.relations[id]
	return r, ok
}

func (s *testStore) forEach(ids []int64, fn func(*osm.Relation) error) error {
	for _, id := range ids {
		if r, ok := s.load(id); ok {
			if err := fn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *testStore) forEachCached(ids []int64, v cache.RelationVisitor) error {
	for _, id := range ids {
		known, err := v.VisitCached(id)
		if err != nil {
			return err
		}
		if known {
			continue
		}
		if r, ok := s.load(id); ok {
			if err := v.Visit(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *testStore) ForEachRelationByWay(id int64, fn func(*osm.Relation) error) error {
	return s.forEach(s.wayRelations[id], fn)
}

func (s *testStore) ForEachRelationByNode(id int64, fn func(*osm.Relation) error) error {
	return s.forEach(s.nodeRelations[id], fn)
}

func (s *testStore) ForEachRelationByWayCached(id int64, v cache.RelationVisitor) error {
	return s.forEachCached(s.wayRelations[id], v)
}

func (s *testStore) ForEachRelationByNodeCached(id int64, v cache.RelationVisitor) error {
	return s.forEachCached(s.nodeRelations[id], v)
}

func rawNode(id int64, tags osm.Tags) element.RawElement {
	return element.RawElement{Kind: element.NODE, ID: strconv.FormatInt(id, 10), Tags: tags}
}

func rawWay(s *testStore, id int64) element.RawElement {
	return element.FromWay(s.ways[id])
}

func rawRelation(s *testStore, id int64) element.RawElement {
	return element.FromRelation(s.relations[id])
}

type testAssembler struct {
	*Assembler
	store     *testStore
	mapping   *mapping.Mapping
	collector *feature.Collector
}

func newTestAssembler(t *testing.T, store *testStore, opts Options) *testAssembler {
	t.Helper()
	m := testClassifier(t)
	c := &feature.Collector{}
	return &testAssembler{
		Assembler: NewAssembler(store, m, NewRelationTypeCache(m), c, opts),
		store:     store,
		mapping:   m,
		collector: c,
	}
}

func (a *testAssembler) process(t *testing.T, elem element.RawElement) []*feature.Feature {
	t.Helper()
	before := len(a.collector.Features)
	if err := a.Process(elem); err != nil {
		t.Fatal(err)
	}
	return a.collector.Features[before:]
}

func (a *testAssembler) types(names ...string) []mapping.Type {
	types := make([]mapping.Type, len(names))
	for i, n := range names {
		types[i] = a.mapping.Type(n)
	}
	return types
}

func checkTypes(t *testing.T, got []mapping.Type, expected []mapping.Type) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("types %v != %v", got, expected)
	}
	sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("types %v != %v", got, expected)
		}
	}
}

func checkSources(t *testing.T, got []feature.OsmID, expected ...feature.OsmID) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("sources %v != %v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("sources %v != %v", got, expected)
		}
	}
}
