package feature

import (
	"testing"

	"github.com/omniscale/osmfeatures/element"
	"github.com/omniscale/osmfeatures/mapping"

	"github.com/paulmach/orb"
)

func TestClosedGeometry(t *testing.T) {
	poly := orb.Polygon{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		{{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}},
	}
	f := NewArea(poly, []mapping.Type{1}, OsmID{element.WAY, 1})
	closed, ok := f.ClosedGeometry().(orb.Polygon)
	if !ok {
		t.Fatal(f.ClosedGeometry())
	}
	if len(closed[0]) != 5 || closed[0][4] != closed[0][0] {
		t.Error(closed[0])
	}
	if len(closed[1]) != 4 {
		t.Error(closed[1])
	}
	if len(poly[0]) != 4 {
		t.Error("feature geometry modified", poly[0])
	}
}

func TestTypesCopied(t *testing.T) {
	types := []mapping.Type{3, 4}
	f := NewPoint(orb.Point{1, 2}, types)
	types[0] = 9
	if f.Types[0] != 3 || f.Kind != Point {
		t.Fatal(f)
	}
	if f.Kind.String() != "point" || Area.String() != "area" {
		t.Error(f.Kind)
	}
	if s := (OsmID{element.RELATION, 42}).String(); s != "relation/42" {
		t.Error(s)
	}
}
