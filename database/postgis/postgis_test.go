package postgis

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"

	"github.com/omniscale/osmfeatures/database"
	"github.com/omniscale/osmfeatures/element"
	"github.com/omniscale/osmfeatures/feature"
	"github.com/omniscale/osmfeatures/mapping"

	pq "github.com/lib/pq"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
)

type names map[mapping.Type]string

func (n names) Name(t mapping.Type) string { return n[t] }

func testDb(t *testing.T, params string) *PostGIS {
	t.Helper()
	pg, err := New(database.Config{ConnectionParams: params, Srid: 3857}, names{1: "building", 2: "amenity-cafe"})
	if err != nil {
		t.Fatal(err)
	}
	return pg
}

func TestNewConnectionParams(t *testing.T) {
	os.Unsetenv("PGSSLMODE")
	pg := testDb(t, "postgis://osm@localhost/osm?prefix=test&schema=features")
	if pg.Schema != "features" {
		t.Error("unexpected schema", pg.Schema)
	}
	if pg.Table != "test_features" {
		t.Error("unexpected table", pg.Table)
	}
	if strings.Contains(pg.Params, "prefix=") || strings.Contains(pg.Params, "schema=") {
		t.Error("options not removed", pg.Params)
	}
	if !strings.Contains(pg.Params, "sslmode=disable") {
		t.Error("sslmode not disabled for localhost", pg.Params)
	}

	pg = testDb(t, "postgres://osm@db.example.org/osm")
	if pg.Schema != "public" || pg.Table != "osm_features" {
		t.Error("unexpected defaults", pg.Schema, pg.Table)
	}
	if strings.Contains(pg.Params, "sslmode") {
		t.Error("sslmode set for remote host", pg.Params)
	}

	if _, err := New(database.Config{ConnectionParams: "foo://bar"}, names{}); err == nil {
		t.Error("invalid url accepted")
	}
}

func TestSplitConnectionParams(t *testing.T) {
	rest, schema, prefix := splitConnectionParams("host=localhost prefix=NONE dbname=osm")
	if rest != "host=localhost dbname=osm" || schema != "public" || prefix != "" {
		t.Error(rest, schema, prefix)
	}
}

func TestSQL(t *testing.T) {
	pg := testDb(t, "postgres://localhost/osm?schema=import")
	stmts := pg.createTableSQL()
	if len(stmts) != 2 {
		t.Fatal(stmts)
	}
	if !strings.HasPrefix(stmts[0], `DROP TABLE IF EXISTS "import"."osm_features"`) {
		t.Error(stmts[0])
	}
	if !strings.Contains(stmts[1], "Geometry(Geometry, 3857)") {
		t.Error(stmts[1])
	}
	if idx := pg.indexSQL(); !strings.Contains(idx, `"osm_features_geom" ON "import"."osm_features" USING GIST`) {
		t.Error(idx)
	}
}

func TestRow(t *testing.T) {
	pg := testDb(t, "postgres://localhost/osm")
	f := feature.NewArea(
		orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
		[]mapping.Type{1, 2},
		feature.OsmID{Type: element.WAY, ID: 1},
		feature.OsmID{Type: element.RELATION, ID: 2},
	)
	row, err := pg.row(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != len(columns) {
		t.Fatal(row)
	}
	ids := row[0].(pq.StringArray)
	if len(ids) != 2 || ids[0] != "way/1" || ids[1] != "relation/2" {
		t.Error("unexpected ids", ids)
	}
	types := row[1].(pq.StringArray)
	if len(types) != 2 || types[0] != "building" || types[1] != "amenity-cafe" {
		t.Error("unexpected types", types)
	}
	if row[2] != "area" {
		t.Error("unexpected kind", row[2])
	}

	data, err := hex.DecodeString(row[3].(string))
	if err != nil {
		t.Fatal(err)
	}
	g, srid, err := ewkb.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if srid != 3857 {
		t.Error("unexpected srid", srid)
	}
	poly, ok := g.(orb.Polygon)
	if !ok || len(poly) != 1 || len(poly[0]) != 5 || !poly[0][0].Equal(poly[0][4]) {
		t.Error("ring not closed", g)
	}
}

func TestEmitNotOpened(t *testing.T) {
	pg := testDb(t, "postgres://localhost/osm")
	if err := pg.Emit(feature.NewPoint(orb.Point{1, 1}, nil)); err == nil {
		t.Error("emit without open succeeded")
	}
	if err := pg.Close(); err != nil {
		t.Error(err)
	}
}
