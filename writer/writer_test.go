package writer

import (
	"context"
	"io/ioutil"
	"os"
	"sort"
	"testing"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"
	"github.com/omniscale/osmfeatures/feature"
	"github.com/omniscale/osmfeatures/stats"

	"github.com/pkg/errors"
)

func fillCache(t *testing.T, c *cache.OSMCache, s *testStore) {
	t.Helper()
	var nodes []osm.Node
	for _, nd := range s.coords {
		nodes = append(nodes, *nd)
	}
	if err := c.Coords.PutCoords(nodes); err != nil {
		t.Fatal(err)
	}
	var ways []osm.Way
	for _, w := range s.ways {
		ways = append(ways, *w)
	}
	if err := c.Ways.PutWays(ways); err != nil {
		t.Fatal(err)
	}
	var rels []osm.Relation
	for _, r := range s.relations {
		rels = append(rels, *r)
	}
	if err := c.Relations.PutRelations(rels); err != nil {
		t.Fatal(err)
	}
	if err := c.WayRelations.AddRelations(rels); err != nil {
		t.Fatal(err)
	}
	if err := c.NodeRelations.AddRelations(rels); err != nil {
		t.Fatal(err)
	}
}

func openCache(t *testing.T) (*cache.OSMCache, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "osmfeatures_test")
	if err != nil {
		t.Fatal(err)
	}
	c := cache.NewOSMCache(dir, cache.BadgerBackend)
	if err := c.Open(); err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return c, func() {
		c.Close()
		os.RemoveAll(dir)
	}
}

func TestShardedWriter(t *testing.T) {
	c, cleanup := openCache(t)
	defer cleanup()

	s := testMultiPartStore()
	s.addNode(100, 1, 1)
	s.addNode(101, 2, 2)
	s.addWay(10, osm.Tags{"highway": "primary"}, 100, 101)
	s.addWay(11, osm.Tags{"highway": "primary"}, 101, 100)
	s.addWay(12, osm.Tags{"highway": "primary"}, 100, 101)
	fillCache(t, c, s)
	cafe := osm.Node{Long: 5, Lat: 5}
	cafe.ID = 200
	cafe.Tags = osm.Tags{"amenity": "cafe"}
	if _, err := c.Nodes.PutNodes([]osm.Node{cafe}); err != nil {
		t.Fatal(err)
	}
	if err := c.Coords.PutCoords([]osm.Node{cafe}); err != nil {
		t.Fatal(err)
	}

	collector := &feature.Collector{}
	progress := stats.New()
	w := NewShardedWriter(c, testClassifier(t), collector, 3, Options{Progress: progress})
	if err := w.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var kinds []string
	for _, f := range collector.Features {
		kinds = append(kinds, f.Kind.String())
	}
	sort.Strings(kinds)
	// two multipolygon parts, three highways, one cafe
	expected := []string{"area", "area", "line", "line", "line", "point"}
	if len(kinds) != len(expected) {
		t.Fatal("unexpected features", kinds)
	}
	for i := range kinds {
		if kinds[i] != expected[i] {
			t.Fatal("unexpected features", kinds)
		}
	}
	counts := progress.Counts()
	if counts.Areas != 2 || counts.Lines != 3 || counts.Points != 1 || counts.Relations != 1 {
		t.Error("unexpected counts", counts)
	}
}

func TestShardedWriterEmitterError(t *testing.T) {
	c, cleanup := openCache(t)
	defer cleanup()

	s := newTestStore()
	s.addNode(1, 0, 0)
	s.addNode(2, 1, 0)
	for id := int64(1); id <= 100; id++ {
		s.addWay(id, osm.Tags{"highway": "primary"}, 1, 2)
	}
	fillCache(t, c, s)

	emitErr := errors.New("disk full")
	emitter := feature.EmitterFunc(func(*feature.Feature) error { return emitErr })
	w := NewShardedWriter(c, testClassifier(t), emitter, 4, Options{})
	err := w.Run(context.Background())
	if errors.Cause(err) != emitErr {
		t.Fatal("expected emitter error", err)
	}
}

func TestShardOf(t *testing.T) {
	if shardOf(7, 3) != 1 || shardOf(-7, 3) != 1 || shardOf(0, 1) != 0 {
		t.Error("unexpected shards")
	}
}
