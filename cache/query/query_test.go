package query

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmfeatures/cache"
)

func fillTestCache(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "osmfeatures_query")
	if err != nil {
		t.Fatal(err)
	}
	osmCache := cache.NewOSMCache(dir, cache.BadgerBackend)
	if err := osmCache.Open(); err != nil {
		t.Fatal(err)
	}
	defer osmCache.Close()

	nodes := []osm.Node{
		{Element: osm.Element{ID: 1}, Long: 1, Lat: 2},
		{Element: osm.Element{ID: 2, Tags: osm.Tags{"amenity": "cafe"}}, Long: 3, Lat: 4},
	}
	if err := osmCache.Coords.PutCoords(nodes); err != nil {
		t.Fatal(err)
	}
	if _, err := osmCache.Nodes.PutNodes(nodes); err != nil {
		t.Fatal(err)
	}
	if err := osmCache.Ways.PutWay(&osm.Way{Element: osm.Element{ID: 10}, Refs: []int64{1, 2}}); err != nil {
		t.Fatal(err)
	}
	rels := []osm.Relation{{
		Element: osm.Element{ID: 100, Tags: osm.Tags{"route": "bus"}},
		Members: []osm.Member{{ID: 10, Type: osm.WayMember}, {ID: 2, Type: osm.NodeMember, Role: "stop"}},
	}}
	if err := osmCache.Relations.PutRelations(rels); err != nil {
		t.Fatal(err)
	}
	if err := osmCache.WayRelations.AddRelations(rels); err != nil {
		t.Fatal(err)
	}
	if err := osmCache.NodeRelations.AddRelations(rels); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestQueryFull(t *testing.T) {
	dir := fillTestCache(t)
	defer os.RemoveAll(dir)

	buf := &bytes.Buffer{}
	if err := Query([]string{"-cachedir", dir, "-rel", "100", "-full"}, buf); err != nil {
		t.Fatal(err)
	}
	res := result{}
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	rel := res.Relations["100"]
	if rel == nil || rel.Ways["10"] == nil {
		t.Fatal("missing relation members", buf.String())
	}
	nds := rel.Ways["10"].Nodes
	if nds["1"] == nil || nds["2"] == nil || nds["2"].Tags["amenity"] != "cafe" {
		t.Error("unexpected nodes", buf.String())
	}
}

func TestQueryDeps(t *testing.T) {
	dir := fillTestCache(t)
	defer os.RemoveAll(dir)

	osmCache := cache.NewOSMCache(dir, cache.BadgerBackend)
	if err := osmCache.Open(); err != nil {
		t.Fatal(err)
	}
	defer osmCache.Close()

	res, err := query(osmCache, options{nodeID: 2, wayID: 10, relID: 999, deps: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Nodes["2"] == nil || res.Nodes["2"].Relations["100"] == nil {
		t.Error("missing node relations")
	}
	if res.Ways["10"] == nil || res.Ways["10"].Relations["100"] == nil {
		t.Error("missing way relations")
	}
	if r, ok := res.Relations["999"]; !ok || r != nil {
		t.Error("missing relation not reported as null")
	}

	if _, err := query(osmCache, options{nodeID: -1, wayID: -1, relID: -1, full: true, deps: true}); err == nil {
		t.Error("-full and -deps accepted")
	}
}

func TestQueryMissingCache(t *testing.T) {
	if err := Query([]string{"-cachedir", "/nonexistent/osmfeatures"}, ioutil.Discard); err == nil {
		t.Error("missing cache accepted")
	}
}
