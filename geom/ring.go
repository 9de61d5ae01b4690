package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// IsClosed reports whether the path has more than two points and ends
// where it starts.
func IsClosed(points []orb.Point) bool {
	return len(points) > 2 && points[0] == points[len(points)-1]
}

// Compact returns points without consecutive duplicates.
func Compact(points []orb.Point) []orb.Point {
	if len(points) == 0 {
		return nil
	}
	result := make([]orb.Point, 1, len(points))
	result[0] = points[0]
	for _, p := range points[1:] {
		if p != result[len(result)-1] {
			result = append(result, p)
		}
	}
	return result
}

// ValidRing reports whether points form a closed ring with at least three
// distinct points.
func ValidRing(points []orb.Point) bool {
	if !IsClosed(points) {
		return false
	}
	distinct := make(map[orb.Point]struct{}, len(points))
	for _, p := range points[:len(points)-1] {
		distinct[p] = struct{}{}
		if len(distinct) >= 3 {
			return true
		}
	}
	return false
}

// OpenRing returns the ring without consecutive duplicates and without the
// repeated closing point. points needs to be a ValidRing.
func OpenRing(points []orb.Point) orb.Ring {
	c := Compact(points)
	return orb.Ring(c[:len(c)-1])
}

// CloseRing returns a copy of an open ring with the first point appended.
func CloseRing(r orb.Ring) orb.Ring {
	if len(r) == 0 {
		return nil
	}
	closed := make(orb.Ring, len(r), len(r)+1)
	copy(closed, r)
	if r[0] != r[len(r)-1] {
		closed = append(closed, r[0])
	}
	return closed
}

// Centroid returns the mean of all points.
func Centroid(points []orb.Point) orb.Point {
	var x, y float64
	for _, p := range points {
		x += p[0]
		y += p[1]
	}
	n := float64(len(points))
	return orb.Point{x / n, y / n}
}

// RingContainsRing reports whether the (open) inner ring lies within the
// (open) outer ring. Only the first vertex of inner is tested, rings of
// valid multipolygons do not cross.
func RingContainsRing(outer, inner orb.Ring) bool {
	if len(inner) == 0 {
		return false
	}
	return planar.RingContains(CloseRing(outer), inner[0])
}

func reverseRefs(refs []int64) {
	for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
		refs[i], refs[j] = refs[j], refs[i]
	}
}

func reversePoints(points []orb.Point) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
}
