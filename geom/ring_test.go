package geom

import (
	"testing"

	"github.com/paulmach/orb"
)

var square = []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}

func TestIsClosed(t *testing.T) {
	if !IsClosed(square) {
		t.Error("square not closed")
	}
	if IsClosed([]orb.Point{{0, 0}, {0, 0}}) {
		t.Error("two points can not be closed")
	}
	if IsClosed([]orb.Point{{0, 0}, {1, 0}, {1, 1}}) {
		t.Error("open path closed")
	}
}

func TestValidRing(t *testing.T) {
	if !ValidRing(square) {
		t.Error("square not valid")
	}
	for _, pts := range [][]orb.Point{
		{{0, 0}, {1, 0}, {0, 0}},
		{{0, 0}, {1, 0}, {1, 0}, {0, 0}},
		{{0, 0}, {1, 0}, {0, 0}, {1, 0}, {0, 0}},
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		nil,
	} {
		if ValidRing(pts) {
			t.Errorf("%v is not a valid ring", pts)
		}
	}
	if !ValidRing([]orb.Point{{0, 0}, {1, 0}, {1, 0}, {1, 1}, {0, 0}}) {
		t.Error("ring with duplicate point not valid")
	}
}

func TestOpenRing(t *testing.T) {
	r := OpenRing(square)
	if len(r) != 4 || r[0] != (orb.Point{0, 0}) || r[3] != (orb.Point{0, 1}) {
		t.Fatal(r)
	}
	// stitched rings repeat the junction points
	r = OpenRing([]orb.Point{{0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 1}, {0, 0}})
	if len(r) != 4 {
		t.Fatal(r)
	}
	closed := CloseRing(r)
	if len(closed) != 5 || closed[4] != closed[0] {
		t.Fatal(closed)
	}
	if len(r) != 4 {
		t.Fatal("CloseRing modified input")
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}})
	if c != (orb.Point{1, 1}) {
		t.Fatal(c)
	}
}

func TestRingContainsRing(t *testing.T) {
	outer := OpenRing([]orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}})
	inner := OpenRing([]orb.Point{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}})
	other := OpenRing([]orb.Point{{20, 20}, {21, 20}, {21, 21}, {20, 20}})
	if !RingContainsRing(outer, inner) {
		t.Error("inner not within outer")
	}
	if RingContainsRing(outer, other) {
		t.Error("other within outer")
	}
	if RingContainsRing(outer, nil) {
		t.Error("empty ring within outer")
	}
}
