package geom

import (
	"github.com/paulmach/orb"
)

// Segment is the resolved node sequence of a single way. Refs and Points
// are parallel; nodes without a coordinate are not part of a segment.
type Segment struct {
	WayID  int64
	Refs   []int64
	Points []orb.Point
}

// Valid reports whether the segment has at least two points.
func (s *Segment) Valid() bool {
	return len(s.Refs) >= 2 && len(s.Refs) == len(s.Points)
}

func (s *Segment) front() int64 { return s.Refs[0] }
func (s *Segment) back() int64  { return s.Refs[len(s.Refs)-1] }

// Path is the result of stitching one or more segments. It is a ring if
// Closed returns true.
type Path struct {
	WayIDs []int64
	Refs   []int64
	Points []orb.Point
}

// Closed reports whether the path ends where it starts.
func (p *Path) Closed() bool {
	return IsClosed(p.Points)
}

func (p *Path) last() int64 {
	return p.Refs[len(p.Refs)-1]
}

// add appends all points of seg, starting at the endpoint from. The
// endpoint shared with the previous segment is kept, so every input point
// is part of the path exactly once.
func (p *Path) add(seg *Segment, from int64) {
	start := len(p.Refs)
	p.Refs = append(p.Refs, seg.Refs...)
	p.Points = append(p.Points, seg.Points...)
	if seg.front() != from {
		reverseRefs(p.Refs[start:])
		reversePoints(p.Points[start:])
	}
	p.WayIDs = append(p.WayIDs, seg.WayID)
}

// handle addresses a segment in the stitcher arena. Segments are compared
// by handle, never by content, so two ways with identical nodes stay
// distinct.
type handle int

// endpointIndex maps an endpoint node id to all unused segments that
// start or end there, in ascending handle order.
type endpointIndex map[int64][]handle

func (idx endpointIndex) add(id int64, h handle) {
	idx[id] = append(idx[id], h)
}

// remove drops every entry of h under id. A closed segment is listed
// twice under the same id.
func (idx endpointIndex) remove(id int64, h handle) {
	handles := idx[id]
	n := 0
	for _, other := range handles {
		if other != h {
			handles[n] = other
			n++
		}
	}
	if n == 0 {
		delete(idx, id)
		return
	}
	idx[id] = handles[:n]
}

// Stitch chains segments that share endpoint node ids into paths.
// Segments with less than two points are dropped, all other points end up
// in exactly one path.
//
// Stitching starts with the first unused segment and follows its trailing
// endpoint until no unused segment shares it, or until the path returns
// to its first node. If more than two segments meet at one node, the
// earliest segment is chosen and the others start or join a later path.
// Which path closes is arbitrary for such branching input.
func Stitch(segments []Segment) []Path {
	arena := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Valid() {
			arena = append(arena, s)
		}
	}

	idx := make(endpointIndex, len(arena)*2)
	for i := range arena {
		idx.add(arena[i].front(), handle(i))
		idx.add(arena[i].back(), handle(i))
	}

	used := make([]bool, len(arena))
	var paths []Path
	for i := range arena {
		if used[i] {
			continue
		}
		path := Path{}
		h := handle(i)
		from := arena[h].front()
		for {
			seg := &arena[h]
			used[h] = true
			idx.remove(seg.front(), h)
			idx.remove(seg.back(), h)
			path.add(seg, from)

			from = path.last()
			if from == path.Refs[0] {
				break
			}
			next, ok := idx[from]
			if !ok {
				break
			}
			h = next[0]
		}
		paths = append(paths, path)
	}
	return paths
}
